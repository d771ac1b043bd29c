package services

import (
	"context"
	"os"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/policeops/criminal-case-api/databases"
	"github.com/policeops/criminal-case-api/models"
)

// Notifier delivers workflow notifications. Persistence is the source of
// truth; websocket push and email are best effort and never fail the caller.
type Notifier struct {
	NDB databases.NotificationDatabase
	UDB databases.UserDatabase
	Hub *Hub

	// EmailEnabled gates sendgrid delivery so tests and local runs stay
	// offline.
	EmailEnabled bool
}

// NewNotifier wires a notifier over the given databases and hub.
func NewNotifier(ndb databases.NotificationDatabase, udb databases.UserDatabase, hub *Hub) *Notifier {
	return &Notifier{
		NDB:          ndb,
		UDB:          udb,
		Hub:          hub,
		EmailEnabled: os.Getenv("SENDGRID_API_KEY") != "",
	}
}

// NotifyUser stores a notification for a single recipient and pushes it over
// the websocket hub if the recipient is connected.
func (n *Notifier) NotifyUser(ctx context.Context, recipientID, title, message, kind, relatedType, relatedID string) {
	notification := models.Notification{
		ID: primitive.NewObjectID(),
		Details: models.NotificationDetails{
			RecipientID: recipientID,
			Title:       title,
			Message:     message,
			Kind:        kind,
			RelatedType: relatedType,
			RelatedID:   relatedID,
			Read:        false,
			CreatedAt:   primitive.NewDateTimeFromTime(nowUTC()),
		},
	}

	if _, err := n.NDB.InsertOne(ctx, notification); err != nil {
		zap.S().Errorw("failed to store notification",
			"recipientID", recipientID, "title", title, "error", err)
		return
	}

	if n.Hub != nil {
		n.Hub.Push(recipientID, notification)
	}
	n.emailUser(ctx, recipientID, title, message)
}

// NotifyRole fans a notification out to every user holding the named role.
func (n *Notifier) NotifyRole(ctx context.Context, roleName, title, message, kind, relatedType, relatedID string) {
	users, err := n.UDB.Find(ctx, bson.M{"user.roles": roleName})
	if err != nil {
		zap.S().Errorw("failed to resolve role recipients",
			"role", roleName, "title", title, "error", err)
		return
	}
	for _, u := range users {
		n.NotifyUser(ctx, u.ID.Hex(), title, message, kind, relatedType, relatedID)
	}
}

func (n *Notifier) emailUser(ctx context.Context, recipientID, subject, body string) {
	if !n.EmailEnabled {
		return
	}
	oid, err := primitive.ObjectIDFromHex(recipientID)
	if err != nil {
		return
	}
	user, err := n.UDB.FindOne(ctx, bson.M{"_id": oid})
	if err != nil || user.Details.Email == "" {
		return
	}

	from := mail.NewEmail("Criminal Case API", "no-reply@policeops.dev")
	to := mail.NewEmail(user.Details.FullName, user.Details.Email)
	message := mail.NewSingleEmail(from, subject, to, body, "<p>"+body+"</p>")
	client := sendgrid.NewSendClient(os.Getenv("SENDGRID_API_KEY"))
	response, err := client.Send(message)
	if err != nil {
		zap.S().Warnw("failed to send notification email",
			"recipientID", recipientID, "error", err)
		return
	}
	if response.StatusCode >= 400 {
		zap.S().Warnw("sendgrid returned error status",
			"status", response.StatusCode, "body", response.Body)
	}
}
