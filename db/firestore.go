package db

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const situationsCollection = "situations"

// FirestoreClient is a singleton Firestore client instance.
var (
	client     *firestore.Client
	clientOnce sync.Once
	clientErr  error
)

// InitFirestore initializes and returns a Firestore client from the base64
// service-account JSON in FIREBASE_CREDENTIALS.
func InitFirestore(ctx context.Context) (*firestore.Client, error) {
	clientOnce.Do(func() {
		encodedCreds := os.Getenv("FIREBASE_CREDENTIALS")
		if encodedCreds == "" {
			clientErr = errors.New("FIREBASE_CREDENTIALS is not set")
			return
		}
		creds, err := base64.StdEncoding.DecodeString(encodedCreds)
		if err != nil {
			clientErr = fmt.Errorf("failed to decode Firestore credentials: %w", err)
			return
		}

		opt := option.WithCredentialsJSON(creds)
		app, err := firebase.NewApp(ctx, nil, opt)
		if err != nil {
			clientErr = fmt.Errorf("error initializing Firestore: %w", err)
			return
		}

		client, err = app.Firestore(ctx)
		if err != nil {
			clientErr = fmt.Errorf("error getting Firestore client: %w", err)
		}
	})

	return client, clientErr
}

// situationDoc is the document shape. The record itself is kept as JSON so
// its null semantics survive the round trip.
type situationDoc struct {
	CreatedAt      time.Time `firestore:"createdAt"`
	SituationID    string    `firestore:"situationId"`
	EmergencyLevel string    `firestore:"emergencyLevel"`
	Record         string    `firestore:"record"`
	Guideline      string    `firestore:"guideline"`
	Degraded       bool      `firestore:"degraded"`
}

// FirestoreStore keeps situations in the "situations" collection.
type FirestoreStore struct {
	client *firestore.Client
}

func NewFirestoreStore(c *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: c}
}

func (s *FirestoreStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

func (s *FirestoreStore) SaveSituation(ctx context.Context, st StoredSituation) error {
	if st.ID == "" {
		return errors.New("save situation: empty id")
	}
	rec, err := json.Marshal(st.Situation)
	if err != nil {
		return fmt.Errorf("encode situation %s: %w", st.ID, err)
	}
	doc := situationDoc{
		CreatedAt:      st.CreatedAt.UTC(),
		SituationID:    string(st.Situation.SituationID),
		EmergencyLevel: string(st.Situation.EmergencyLevel),
		Record:         string(rec),
		Guideline:      st.Guideline,
		Degraded:       st.Degraded,
	}
	if _, err := s.client.Collection(situationsCollection).Doc(st.ID).Set(ctx, doc); err != nil {
		return fmt.Errorf("failed to set situation document %s: %w", st.ID, err)
	}
	return nil
}

func (s *FirestoreStore) RecentSituations(ctx context.Context, limit int) ([]StoredSituation, error) {
	iter := s.client.Collection(situationsCollection).
		OrderBy("createdAt", firestore.Desc).
		Limit(clampLimit(limit)).
		Documents(ctx)
	defer iter.Stop()

	var out []StoredSituation
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error iterating situations collection: %w", err)
		}
		st, err := fromSnapshot(snap)
		if err != nil {
			log.Printf("Warning: skipping situation %s: %v", snap.Ref.ID, err)
			continue
		}
		out = append(out, st)
	}
	return out, nil
}

func (s *FirestoreStore) GetSituation(ctx context.Context, id string) (StoredSituation, error) {
	snap, err := s.client.Collection(situationsCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return StoredSituation{}, ErrNotFound
		}
		return StoredSituation{}, fmt.Errorf("error getting situation %s: %w", id, err)
	}
	return fromSnapshot(snap)
}

// PruneBefore deletes every document created before t with a BulkWriter.
func (s *FirestoreStore) PruneBefore(ctx context.Context, t time.Time) (int, error) {
	iter := s.client.Collection(situationsCollection).
		Where("createdAt", "<", t.UTC()).
		Documents(ctx)
	defer iter.Stop()

	bw := s.client.BulkWriter(ctx)
	n := 0
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			bw.End()
			return n, fmt.Errorf("error iterating expired situations: %w", err)
		}
		if _, err := bw.Delete(snap.Ref); err != nil {
			log.Printf("Error enqueueing delete for %s: %v", snap.Ref.ID, err)
			continue
		}
		n++
	}
	bw.End()
	return n, nil
}

func fromSnapshot(snap *firestore.DocumentSnapshot) (StoredSituation, error) {
	var doc situationDoc
	if err := snap.DataTo(&doc); err != nil {
		return StoredSituation{}, fmt.Errorf("error converting document %s: %w", snap.Ref.ID, err)
	}
	st := StoredSituation{
		ID:        snap.Ref.ID,
		CreatedAt: doc.CreatedAt,
		Guideline: doc.Guideline,
		Degraded:  doc.Degraded,
	}
	if err := json.Unmarshal([]byte(doc.Record), &st.Situation); err != nil {
		return StoredSituation{}, fmt.Errorf("decode situation %s: %w", snap.Ref.ID, err)
	}
	return st, nil
}
