package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/sehatly/app/models"
	"github.com/shashiranjanraj/sehatly/pkg/apperr"
	"github.com/shashiranjanraj/sehatly/pkg/auth"
)

type fakeVendorStore struct {
	requests map[primitive.ObjectID]models.VendorRequest
	vendors  []models.Vendor
}

func newFakeVendorStore() *fakeVendorStore {
	return &fakeVendorStore{requests: make(map[primitive.ObjectID]models.VendorRequest)}
}

func (f *fakeVendorStore) CreateRequest(_ context.Context, req *models.VendorRequest) error {
	req.ID = primitive.NewObjectID()
	f.requests[req.ID] = *req
	return nil
}

func (f *fakeVendorStore) FindRequest(_ context.Context, id primitive.ObjectID) (models.VendorRequest, error) {
	req, ok := f.requests[id]
	if !ok {
		return models.VendorRequest{}, apperr.New(apperr.NotFound, "Vendor request not found.")
	}
	return req, nil
}

func (f *fakeVendorStore) AllRequests(context.Context) ([]models.VendorRequest, error) {
	var out []models.VendorRequest
	for _, req := range f.requests {
		out = append(out, req)
	}
	return out, nil
}

func (f *fakeVendorStore) DeleteRequest(_ context.Context, id primitive.ObjectID) error {
	if _, ok := f.requests[id]; !ok {
		return apperr.New(apperr.NotFound, "Vendor request not found.")
	}
	delete(f.requests, id)
	return nil
}

func (f *fakeVendorStore) MarkRequestRejected(_ context.Context, id primitive.ObjectID) error {
	req, ok := f.requests[id]
	if !ok {
		return apperr.New(apperr.NotFound, "Vendor request not found.")
	}
	req.Status = models.RequestRejected
	f.requests[id] = req
	return nil
}

func (f *fakeVendorStore) CreateVendor(_ context.Context, v *models.Vendor) error {
	v.ID = primitive.NewObjectID()
	f.vendors = append(f.vendors, *v)
	return nil
}

type fakeUserStore struct {
	users []models.User
}

func (f *fakeUserStore) FindByEmail(_ context.Context, email string) (models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, apperr.New(apperr.NotFound, "User not found.")
}

func (f *fakeUserStore) Create(_ context.Context, user *models.User) error {
	user.ID = primitive.NewObjectID()
	f.users = append(f.users, *user)
	return nil
}

func submitApplication(t *testing.T, svc *VendorService) models.VendorRequest {
	t.Helper()
	req, err := svc.SubmitRequest(context.Background(), VendorRequestInput{
		Name:         "Karim Pharma",
		Email:        "karim@pharma.test",
		Phone:        "01811111111",
		BusinessName: "Karim Pharmaceuticals",
		City:         "Chattogram",
	})
	require.NoError(t, err)
	return req
}

func TestSubmitRequestFilesPendingApplication(t *testing.T) {
	store := newFakeVendorStore()
	svc := NewVendorService(store, &fakeUserStore{})

	req := submitApplication(t, svc)

	assert.False(t, req.ID.IsZero())
	assert.Equal(t, models.RequestPending, req.Status)
	assert.Len(t, store.requests, 1)
}

func TestApproveConsumesRequestAndMintsCredentials(t *testing.T) {
	store := newFakeVendorStore()
	users := &fakeUserStore{}
	svc := NewVendorService(store, users)
	req := submitApplication(t, svc)

	vendor, err := svc.Approve(context.Background(), req.ID)
	require.NoError(t, err)

	// The application is consumed.
	assert.Empty(t, store.requests)

	// A vendor record exists with the applicant's details.
	require.Len(t, store.vendors, 1)
	assert.Equal(t, "karim@pharma.test", vendor.Email)
	assert.Equal(t, "Karim Pharmaceuticals", vendor.CompanyName)

	// A vendor-role login was minted with a usable bcrypt hash.
	require.Len(t, users.users, 1)
	account := users.users[0]
	assert.Equal(t, models.RoleVendor, account.Role)
	assert.NotEmpty(t, account.Password)
	assert.NotEqual(t, "karim@pharma.test", account.Password)
	assert.True(t, len(account.Password) > 20, "expected a bcrypt hash, got %q", account.Password)
	assert.False(t, auth.CheckPassword(account.Password, "karim@pharma.test"))
	assert.Equal(t, vendor.Password, account.Password)
}

func TestApproveUnknownRequest(t *testing.T) {
	svc := NewVendorService(newFakeVendorStore(), &fakeUserStore{})

	_, err := svc.Approve(context.Background(), primitive.NewObjectID())
	require.Error(t, err)
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
}

func TestRejectRemovesRequest(t *testing.T) {
	store := newFakeVendorStore()
	svc := NewVendorService(store, &fakeUserStore{})
	req := submitApplication(t, svc)

	require.NoError(t, svc.Reject(context.Background(), req.ID))
	assert.Empty(t, store.requests)

	err := svc.Reject(context.Background(), req.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
}
