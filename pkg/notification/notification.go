// Package notification provides a multi-channel notification system.
//
// Define a Notification:
//
//	type WelcomeNotification struct { User models.User }
//	func (n *WelcomeNotification) Via() []string { return []string{"mail", "slack"} }
//	func (n *WelcomeNotification) ToMail() notification.MailData {
//	    return notification.MailData{
//	        Subject: "Welcome!",
//	        Body:    "<h1>Hi " + n.User.Name + "</h1>",
//	    }
//	}
//	func (n *WelcomeNotification) ToSlack() notification.SlackData {
//	    return notification.SlackData{Text: "New user: " + n.User.Name}
//	}
//
// Send:
//
//	notification.Send("user@example.com", &WelcomeNotification{User: user})
package notification

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/shashiranjanraj/sehatly/pkg/http"
	"github.com/shashiranjanraj/sehatly/pkg/logger"
	"github.com/shashiranjanraj/sehatly/pkg/mail"
	"github.com/shashiranjanraj/sehatly/pkg/workerpool"
)

// ------------------- Channel data structs -------------------

// MailData carries the data needed to send an email notification.
type MailData struct {
	To      string // overrides the notifiable address if set
	Subject string
	Body    string // HTML
	Text    string // plain-text fallback
}

// SlackData carries a Slack message payload.
type SlackData struct {
	WebhookURL  string // override default if set
	Text        string
	Attachments []SlackAttachment
}

// SlackAttachment is a single Slack message attachment block.
type SlackAttachment struct {
	Color  string `json:"color,omitempty"` // "good" | "warning" | "danger"
	Title  string `json:"title,omitempty"`
	Text   string `json:"text,omitempty"`
	Footer string `json:"footer,omitempty"`
}

// WebhookData carries an arbitrary JSON payload to POST to a URL.
type WebhookData struct {
	URL     string
	Payload interface{}
	Headers map[string]string
}

// DatabaseData carries the data to be stored in a notifications table.
type DatabaseData struct {
	Type    string
	Message string
	Data    interface{}
}

// ------------------- Notification interface -------------------

// Notification is the interface every notification must satisfy.
type Notification interface {
	// Via returns the list of channel names: "mail", "slack", "webhook", "database".
	Via() []string
}

// Mailable can be implemented to support the mail channel.
type Mailable interface {
	ToMail() MailData
}

// Slackable can be implemented to support the Slack channel.
type Slackable interface {
	ToSlack() SlackData
}

// Webhookable can be implemented to support the webhook channel.
type Webhookable interface {
	ToWebhook() WebhookData
}

// Databaseable can be implemented to store the notification in the DB.
type Databaseable interface {
	ToDatabase() DatabaseData
}

// ------------------- Global config -------------------

var defaultSlackWebhook string

// SetSlackWebhook sets the default Slack incoming webhook URL.
func SetSlackWebhook(url string) { defaultSlackWebhook = url }

var databaseCol *mongo.Collection

// UseCollection sets the Mongo collection backing the "database" channel.
func UseCollection(col *mongo.Collection) { databaseCol = col }

// asyncPool bounds concurrent background notification sends.
var asyncPool = workerpool.New(16)

// ------------------- Send -------------------

// Send dispatches the notification through all channels returned by Via().
// address is typically an email address used for the mail channel.
func Send(address string, n Notification) []error {
	var errs []error
	for _, channel := range n.Via() {
		if err := dispatch(address, channel, n); err != nil {
			logger.Error("notification: channel failed",
				"channel", channel, "error", err)
			errs = append(errs, err)
		}
	}
	return errs
}

// SendAsync dispatches the notification on a bounded background pool.
// When the pool is saturated the notification is sent inline instead of
// being dropped.
func SendAsync(address string, n Notification) {
	task := func() {
		if errs := Send(address, n); len(errs) > 0 {
			for _, e := range errs {
				logger.Error("notification: async error", "error", e)
			}
		}
	}
	if err := asyncPool.Submit(task); err != nil {
		task()
	}
}

func dispatch(address, channel string, n Notification) error {
	switch channel {
	case "mail":
		m, ok := n.(Mailable)
		if !ok {
			return fmt.Errorf("notification: %T does not implement Mailable", n)
		}
		return sendMail(address, m.ToMail())

	case "slack":
		s, ok := n.(Slackable)
		if !ok {
			return fmt.Errorf("notification: %T does not implement Slackable", n)
		}
		return sendSlack(s.ToSlack())

	case "webhook":
		wh, ok := n.(Webhookable)
		if !ok {
			return fmt.Errorf("notification: %T does not implement Webhookable", n)
		}
		return sendWebhook(wh.ToWebhook())

	case "database":
		d, ok := n.(Databaseable)
		if !ok {
			return fmt.Errorf("notification: %T does not implement Databaseable", n)
		}
		return storeDatabase(d.ToDatabase())

	default:
		return fmt.Errorf("notification: unknown channel %q", channel)
	}
}

// ------------------- Mail channel -------------------

func sendMail(address string, d MailData) error {
	to := d.To
	if to == "" {
		to = address
	}

	body := d.Body
	if body == "" {
		body = d.Text
	}

	return mail.To(to).Subject(d.Subject).Body(body).Send()
}

// ------------------- Slack channel -------------------

type slackPayload struct {
	Text        string            `json:"text,omitempty"`
	Attachments []SlackAttachment `json:"attachments,omitempty"`
}

func sendSlack(d SlackData) error {
	url := d.WebhookURL
	if url == "" {
		url = defaultSlackWebhook
	}
	if url == "" {
		return fmt.Errorf("notification: slack webhook URL not configured")
	}

	resp, err := http.Post(url).
		Body(slackPayload{Text: d.Text, Attachments: d.Attachments}).
		Timeout(5 * time.Second).
		Send()
	if err != nil {
		return fmt.Errorf("notification: slack post: %w", err)
	}
	if !resp.OK() {
		return fmt.Errorf("notification: slack returned HTTP %d", resp.StatusCode)
	}
	return nil
}

// ------------------- Webhook channel -------------------

func sendWebhook(d WebhookData) error {
	if d.URL == "" {
		return fmt.Errorf("notification: webhook URL is empty")
	}

	resp, err := http.Post(d.URL).
		Headers(d.Headers).
		Body(d.Payload).
		Timeout(10 * time.Second).
		Send()
	if err != nil {
		return fmt.Errorf("notification: webhook send: %w", err)
	}
	if !resp.OK() {
		return fmt.Errorf("notification: webhook returned HTTP %d", resp.StatusCode)
	}
	return nil
}

// ------------------- Database channel -------------------

func storeDatabase(d DatabaseData) error {
	if databaseCol == nil {
		return fmt.Errorf("notification: database channel not configured, call UseCollection")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := databaseCol.InsertOne(ctx, map[string]interface{}{
		"type":      d.Type,
		"message":   d.Message,
		"data":      d.Data,
		"createdAt": time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("notification: store: %w", err)
	}
	return nil
}
