package memory

import (
	"context"
	"sync"

	"github.com/m-mizutani/goerr/v2"

	"github.com/chatling/chatling/pkg/domain/interfaces"
	"github.com/chatling/chatling/pkg/domain/model"
	"github.com/chatling/chatling/pkg/domain/types"
)

type userRepository struct {
	mu    sync.RWMutex
	users map[types.UserID]model.User
}

var _ interfaces.UserRepository = &userRepository{}

func newUserRepository() *userRepository {
	return &userRepository{
		users: make(map[types.UserID]model.User),
	}
}

func (r *userRepository) GetOrCreate(_ context.Context, id types.UserID) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if u, ok := r.users[id]; ok {
		copied := u
		return &copied, nil
	}

	created := model.NewUser(id)
	r.users[id] = *created
	copied := *created
	return &copied, nil
}

func (r *userRepository) Get(_ context.Context, id types.UserID) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	copied := u
	return &copied, nil
}

func (r *userRepository) UpdateLanguage(_ context.Context, id types.UserID, language string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return goerr.New("user not found", goerr.V("user_id", id), goerr.T(types.ErrTagStorage))
	}
	u.Language = language
	r.users[id] = u
	return nil
}
