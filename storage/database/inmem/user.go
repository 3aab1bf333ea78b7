package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/arnalearn/arna/core/user"
)

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) *userRepository {
	return &userRepository{db: db}
}

func copyUser(u user.User) user.User {
	u.ManagerID = copyIntPtr(u.ManagerID)
	u.PasswordHash = append([]byte(nil), u.PasswordHash...)
	return u
}

func (r *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, u := range r.db.users {
		if u.Username == usr.Username {
			return user.User{}, user.ErrUsernameExists
		}
		if u.Email == usr.Email {
			return user.User{}, user.ErrEmailExists
		}
	}
	if usr.ManagerID != nil {
		if _, ok := r.db.users[*usr.ManagerID]; !ok {
			return user.User{}, user.ErrManagerNotFound
		}
	}

	r.db.userSeq++
	usr.ID = r.db.userSeq
	r.db.users[usr.ID] = copyUser(usr)
	return copyUser(usr), nil
}

func (r *userRepository) find(match func(u user.User) bool) (user.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	for _, u := range r.db.users {
		if match(u) {
			return copyUser(u), nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (r *userRepository) GetUserByID(_ context.Context, id int) (user.User, error) {
	return r.find(func(u user.User) bool { return u.ID == id })
}

func (r *userRepository) GetUserByUsername(_ context.Context, username string) (user.User, error) {
	return r.find(func(u user.User) bool { return u.Username == username })
}

func (r *userRepository) GetUserByEmail(_ context.Context, email string) (user.User, error) {
	email = strings.ToLower(email)
	return r.find(func(u user.User) bool { return u.Email == email })
}

func (r *userRepository) GetUserByUsernameOrEmail(_ context.Context, username string) (user.User, error) {
	email := strings.ToLower(username)
	return r.find(func(u user.User) bool { return u.Username == username || u.Email == email })
}

func (r *userRepository) QueryUsers(_ context.Context, filter user.QueryFilter) ([]user.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	users := make([]user.User, 0, len(r.db.users))
	for _, u := range r.db.users {
		if filter.Match(u) {
			users = append(users, copyUser(u))
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}

func (r *userRepository) SetUserManager(_ context.Context, id int, managerID *int) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	u, ok := r.db.users[id]
	if !ok {
		return user.ErrNotFound
	}
	if managerID != nil {
		if _, ok := r.db.users[*managerID]; !ok {
			return user.ErrManagerNotFound
		}
	}
	u.ManagerID = copyIntPtr(managerID)
	r.db.users[id] = u
	return nil
}

func (r *userRepository) SetUserPassword(_ context.Context, id int, hash []byte) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	u, ok := r.db.users[id]
	if !ok {
		return user.ErrNotFound
	}
	u.PasswordHash = append([]byte(nil), hash...)
	r.db.users[id] = u
	return nil
}
