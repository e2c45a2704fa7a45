package service

import (
	"context"

	"github.com/nexboard/nexboard/internal/model"
	"github.com/nexboard/nexboard/internal/repository"
)

// toPublicUser strips credentials; only id and username travel in populated
// references.
func toPublicUser(u *repository.User) *model.User {
	return &model.User{
		ID:       u.ID,
		Username: u.Username,
	}
}

// loadUsers fetches the given user ids (deduplicated) and returns them keyed
// by id, for populating createdBy/sender references.
func loadUsers(ctx context.Context, users repository.UserRepository, ids []string) (map[string]*model.User, error) {
	unique := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	records, err := users.GetByIDs(ctx, unique)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*model.User, len(records))
	for _, record := range records {
		byID[record.ID] = toPublicUser(record)
	}
	return byID, nil
}
