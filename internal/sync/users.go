package sync

import (
	"context"
	"fmt"
	"log"

	"github.com/madio-cloud/signalement-service/internal/firestore"
	"github.com/madio-cloud/signalement-service/internal/model"
)

// MirrorResult summarises one account-mirroring run.
type MirrorResult struct {
	Total    int      `json:"total"`
	Mirrored int      `json:"mirrored"`
	Failed   int      `json:"failed"`
	Errors   []string `json:"errors"`
}

// MirrorUsers pushes accounts that have no document yet into the users
// collection, with a postgresId back-reference so the mobile client can link
// them. Already-mirrored accounts are left untouched.
func (s *Syncer) MirrorUsers(ctx context.Context) (*MirrorResult, error) {
	users, err := s.Users.ListUnmirrored(ctx)
	if err != nil {
		return nil, fmt.Errorf("list unmirrored users: %w", err)
	}

	res := &MirrorResult{Total: len(users), Errors: []string{}}
	for i := range users {
		if err := s.mirrorUser(ctx, &users[i]); err != nil {
			log.Printf("sync: mirror user %s: %v", users[i].Email, err)
			res.Failed++
			res.Errors = append(res.Errors, fmt.Sprintf("user %s: %v", users[i].Email, err))
			continue
		}
		res.Mirrored++
	}
	return res, nil
}

func (s *Syncer) mirrorUser(ctx context.Context, u *model.User) error {
	fields := map[string]firestore.Value{
		"email":      firestore.String(u.Email),
		"nom":        firestore.String(u.Nom),
		"prenom":     firestore.String(u.Prenom),
		"postgresId": firestore.Integer(int64(u.ID)),
		"isBlocked":  firestore.Boolean(u.IsBlocked),
	}
	if u.FirebaseUID != "" {
		fields["firebaseUid"] = firestore.String(u.FirebaseUID)
	}

	documentID, err := s.Docs.Create(ctx, CollectionUsers, fields)
	if err != nil {
		return fmt.Errorf("create user document: %w", err)
	}
	if err := s.Users.SetDocumentID(ctx, u.ID, documentID); err != nil {
		// The document exists but the back-reference is lost; the next run
		// will create a second document. Surface it so operators can clean up.
		return fmt.Errorf("user document %s created but back-reference failed: %w", documentID, err)
	}
	return nil
}
