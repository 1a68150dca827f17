package firestore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	urn "github.com/tinywideclouds/go-platform/pkg/net/v1"
)

const platformAPNS = "apns"

// FirestoreStore implements dispatch.TokenStore using Google Cloud Firestore.
type FirestoreStore struct {
	client *firestore.Client
}

func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client}
}

// deviceRecord is the internal DB representation.
type deviceRecord struct {
	Platform  string    `firestore:"platform"`
	Token     string    `firestore:"token"`
	UpdatedAt time.Time `firestore:"updated_at"`
}

func (s *FirestoreStore) RegisterAPNS(ctx context.Context, user urn.URN, token string) error {
	// Hash of token as Doc ID prevents duplicates and hot-spotting
	record := deviceRecord{
		Platform:  platformAPNS,
		Token:     token,
		UpdatedAt: time.Now(),
	}

	_, err := s.deviceRef(user, hashToken(token)).Set(ctx, record)
	return err
}

func (s *FirestoreStore) UnregisterAPNS(ctx context.Context, user urn.URN, token string) error {
	_, err := s.deviceRef(user, hashToken(token)).Delete(ctx)
	return err
}

// Fetch returns every APNs token registered for user.
func (s *FirestoreStore) Fetch(ctx context.Context, user urn.URN) ([]string, error) {
	iter := s.devicesCollection(user).Where("platform", "==", platformAPNS).Documents(ctx)
	defer iter.Stop()

	tokens := make([]string, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("firestore iteration failed: %w", err)
		}

		var record deviceRecord
		if err := doc.DataTo(&record); err != nil {
			// Corrupt rows are skipped rather than failing the whole fan-out.
			continue
		}
		if record.Token != "" {
			tokens = append(tokens, record.Token)
		}
	}

	return tokens, nil
}

// deviceRef: users/{userID}/devices/{deviceHash}
func (s *FirestoreStore) deviceRef(user urn.URN, docID string) *firestore.DocumentRef {
	return s.devicesCollection(user).Doc(docID)
}

func (s *FirestoreStore) devicesCollection(user urn.URN) *firestore.CollectionRef {
	return s.client.Collection("users").Doc(user.String()).Collection("devices")
}

func hashToken(t string) string {
	sum := sha256.Sum256([]byte(t))
	return hex.EncodeToString(sum[:])
}
