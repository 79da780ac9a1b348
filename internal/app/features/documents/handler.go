// internal/app/features/documents/handler.go
// Package documents is the mutation façade for documents and their rooms.
//
// Every mutation that touches a document and its memberships runs inside a
// transaction, and the actor's role is re-checked inside that transaction.
// A membership read done before the transaction began proves nothing; a
// concurrent removal or demotion must fail the write, not race it.
package documents

import (
	chatstore "github.com/inkwellhq/inkwell/internal/app/store/aichats"
	docstore "github.com/inkwellhq/inkwell/internal/app/store/documents"
	membershipstore "github.com/inkwellhq/inkwell/internal/app/store/memberships"
	userstore "github.com/inkwellhq/inkwell/internal/app/store/users"
	"github.com/inkwellhq/inkwell/internal/app/system/auditlog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler holds dependencies for the document endpoints.
type Handler struct {
	Client  *mongo.Client
	Docs    *docstore.Store
	Members *membershipstore.Store
	Users   *userstore.Store
	Chats   *chatstore.Store
	Audit   *auditlog.Logger
	Log     *zap.Logger
}

// NewHandler constructs the documents handler. The Mongo client is needed
// alongside the stores because mutations open their own transactions.
func NewHandler(client *mongo.Client, docs *docstore.Store, members *membershipstore.Store, users *userstore.Store, chats *chatstore.Store, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Client:  client,
		Docs:    docs,
		Members: members,
		Users:   users,
		Chats:   chats,
		Audit:   audit,
		Log:     logger,
	}
}
