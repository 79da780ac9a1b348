// internal/app/system/txn/txn.go
// Package txn wraps MongoDB multi-document transactions for the mutation
// façade. Deployments without a replica set cannot run transactions; in that
// case WithTransaction falls back to executing the function without one, so
// local single-node setups still work (writes are then applied sequentially,
// in the order fn issues them).
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
)

// WithTransaction runs fn inside a Mongo transaction when the server supports
// them. fn must issue all reads and writes through the context it receives so
// they are bound to the transaction session.
//
// When transactions are unsupported (standalone server), fn runs once with
// the caller's context and no transactional guarantees.
func WithTransaction(ctx context.Context, client *mongo.Client, fn func(ctx context.Context) error) error {
	sess, err := client.StartSession()
	if err != nil {
		if IsNotSupported(err) {
			return fn(ctx)
		}
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if err != nil && IsNotSupported(err) {
		return fn(ctx)
	}
	return err
}

// Server error codes that indicate transactions are unavailable.
//
//	20  = IllegalOperation (e.g. "Transaction numbers are only allowed on a replica set member")
//	51  = illegal operation variants
//	263 = OperationNotSupportedInTransaction
var notSupportedCodes = map[int32]bool{20: true, 51: true, 263: true}

// IsNotSupported reports whether err indicates the server cannot run
// multi-document transactions (standalone mongod, old server, etc.).
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}

	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		if notSupportedCodes[cmdErr.Code] {
			return true
		}
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "illegal operation") {
		return true
	}
	hasTxn := strings.Contains(msg, "transaction")
	hasSession := strings.Contains(msg, "session")
	switch {
	case hasTxn && strings.Contains(msg, "replica set"):
		return true
	case hasTxn && hasSession:
		return true
	case hasSession && strings.Contains(msg, "not supported"):
		return true
	}
	return false
}
