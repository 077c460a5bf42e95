package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/sehatly/app/models"
	"github.com/shashiranjanraj/sehatly/config"
	"github.com/shashiranjanraj/sehatly/pkg/apperr"
	"github.com/shashiranjanraj/sehatly/pkg/auth"
	"github.com/shashiranjanraj/sehatly/pkg/logger"
	"github.com/shashiranjanraj/sehatly/pkg/mail"
	"github.com/shashiranjanraj/sehatly/pkg/notification"
	"github.com/shashiranjanraj/sehatly/pkg/queue"
)

// VendorStore is the slice of the vendor repository the service needs.
type VendorStore interface {
	CreateRequest(ctx context.Context, req *models.VendorRequest) error
	FindRequest(ctx context.Context, id primitive.ObjectID) (models.VendorRequest, error)
	AllRequests(ctx context.Context) ([]models.VendorRequest, error)
	DeleteRequest(ctx context.Context, id primitive.ObjectID) error
	MarkRequestRejected(ctx context.Context, id primitive.ObjectID) error
	CreateVendor(ctx context.Context, v *models.Vendor) error
}

// VendorService handles the application → approval onboarding flow.
type VendorService struct {
	vendors VendorStore
	users   UserStore
}

func NewVendorService(vendors VendorStore, users UserStore) *VendorService {
	return &VendorService{vendors: vendors, users: users}
}

// VendorRequestInput is the public application payload.
type VendorRequestInput struct {
	Name         string `json:"name" validate:"required,min=2,max=100"`
	Email        string `json:"email" validate:"required,email"`
	Phone        string `json:"phone" validate:"nullable,min=5,max=20"`
	BusinessName string `json:"businessName" validate:"required,min=2,max=150"`
	ServiceType  string `json:"serviceType" validate:"nullable,max=100"`
	City         string `json:"city" validate:"nullable,max=100"`
	Website      string `json:"website" validate:"nullable,max=200"`
	Message      string `json:"message" validate:"nullable,max=2000"`
}

// SubmitRequest files a vendor application.
func (s *VendorService) SubmitRequest(ctx context.Context, in VendorRequestInput) (models.VendorRequest, error) {
	req := models.VendorRequest{
		Name:         in.Name,
		Email:        in.Email,
		Phone:        in.Phone,
		BusinessName: in.BusinessName,
		ServiceType:  in.ServiceType,
		City:         in.City,
		Website:      in.Website,
		Message:      in.Message,
		Status:       models.RequestPending,
	}
	if err := s.vendors.CreateRequest(ctx, &req); err != nil {
		return models.VendorRequest{}, err
	}

	// Alert the operations team; the applicant never waits on this.
	notification.SendAsync(config.Get("ADMIN_EMAIL", ""), &VendorRequestNotification{Request: req})

	return req, nil
}

// VendorRequestNotification alerts the operations team about a fresh
// vendor application. It always lands in the notifications collection;
// mail and Slack are added when configured.
type VendorRequestNotification struct {
	Request models.VendorRequest
}

func (n *VendorRequestNotification) Via() []string {
	channels := []string{"database"}
	if config.Get("ADMIN_EMAIL", "") != "" {
		channels = append(channels, "mail")
	}
	if config.Get("SLACK_WEBHOOK", "") != "" {
		channels = append(channels, "slack")
	}
	return channels
}

func (n *VendorRequestNotification) ToMail() notification.MailData {
	return notification.MailData{
		Subject: "New vendor application: " + n.Request.BusinessName,
		Body: fmt.Sprintf(
			"<p>%s (%s) has applied to sell on Sehatly.</p><p>City: %s<br>Service: %s</p>",
			n.Request.Name, n.Request.Email, n.Request.City, n.Request.ServiceType,
		),
	}
}

func (n *VendorRequestNotification) ToSlack() notification.SlackData {
	return notification.SlackData{
		Text: fmt.Sprintf("New vendor application from %s (%s)", n.Request.BusinessName, n.Request.Email),
	}
}

func (n *VendorRequestNotification) ToDatabase() notification.DatabaseData {
	return notification.DatabaseData{
		Type:    "vendor.request",
		Message: "New vendor application from " + n.Request.BusinessName,
		Data:    n.Request,
	}
}

// ListRequests returns every application for the admin queue.
func (s *VendorService) ListRequests(ctx context.Context) ([]models.VendorRequest, error) {
	return s.vendors.AllRequests(ctx)
}

// Approve consumes a pending application: the request is deleted, a
// Vendor record and a vendor-role login are minted with a generated
// password, and the credentials are emailed in the background.
func (s *VendorService) Approve(ctx context.Context, requestID primitive.ObjectID) (models.Vendor, error) {
	req, err := s.vendors.FindRequest(ctx, requestID)
	if err != nil {
		return models.Vendor{}, err
	}

	password, err := generatePassword()
	if err != nil {
		return models.Vendor{}, apperr.Wrap(apperr.Internal, "generate password", err)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return models.Vendor{}, apperr.Wrap(apperr.Internal, "hash password", err)
	}

	vendor := models.Vendor{
		Name:        req.Name,
		Email:       req.Email,
		CompanyName: req.BusinessName,
		Phone:       req.Phone,
		Password:    hash,
	}
	if err := s.vendors.CreateVendor(ctx, &vendor); err != nil {
		return models.Vendor{}, err
	}

	account := models.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: hash,
		Role:     models.RoleVendor,
	}
	if err := s.users.Create(ctx, &account); err != nil {
		return models.Vendor{}, err
	}

	if err := s.vendors.DeleteRequest(ctx, requestID); err != nil {
		// The vendor exists already; a dangling request is only noise.
		logger.Warn("vendor approve: request cleanup failed", "requestId", requestID.Hex(), "error", err)
	}

	if err := queue.Dispatch(&VendorWelcomeJob{
		Email:    req.Email,
		Name:     req.Name,
		Password: password,
	}); err != nil {
		logger.Error("vendor approve: welcome mail dispatch failed", "error", err)
	}

	return vendor, nil
}

// Reject flips an application to rejected and removes it from the queue.
func (s *VendorService) Reject(ctx context.Context, requestID primitive.ObjectID) error {
	if _, err := s.vendors.FindRequest(ctx, requestID); err != nil {
		return err
	}
	return s.vendors.DeleteRequest(ctx, requestID)
}

// VendorWelcomeJob emails the generated credentials to a newly
// approved vendor. Runs on the background queue so approval does not
// block on SMTP.
type VendorWelcomeJob struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

func (j *VendorWelcomeJob) Handle() error {
	body := fmt.Sprintf(
		"<p>Hi %s,</p><p>Your vendor account has been approved.</p>"+
			"<p>Login email: %s<br>Temporary password: %s</p>"+
			"<p>Please change your password after your first login.</p>",
		j.Name, j.Email, j.Password,
	)
	return mail.To(j.Email).
		Subject("Your Sehatly vendor account is ready").
		Body(body).
		Send()
}

func generatePassword() (string, error) {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
