package sqlxrepos

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/arnalearn/arna/core/user"
)

const userColumns = "id, username, email, password_hash, role_id, manager_id, created_at"

type userRow struct {
	ID           int       `db:"id"`
	Username     string    `db:"username"`
	Email        string    `db:"email"`
	PasswordHash []byte    `db:"password_hash"`
	RoleID       int       `db:"role_id"`
	ManagerID    null.Int  `db:"manager_id"`
	CreatedAt    time.Time `db:"created_at"`
}

func (r userRow) toUser() user.User {
	return user.User{
		ID:           r.ID,
		Username:     r.Username,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		RoleID:       user.Role(r.RoleID),
		ManagerID:    r.ManagerID.Ptr(),
		CreatedAt:    r.CreatedAt.UTC(),
	}
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) *userRepository {
	return &userRepository{db: db}
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	const q = `INSERT INTO app_user (username, email, password_hash, role_id, manager_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`

	err := repo.db.QueryRowxContext(
		ctx, q,
		usr.Username, usr.Email, usr.PasswordHash, int(usr.RoleID), null.IntFromPtr(usr.ManagerID), usr.CreatedAt.UTC(),
	).Scan(&usr.ID)
	if err != nil {
		if code, constraint := pqError(err); code == uniqueViolation {
			if strings.Contains(constraint, "email") {
				return user.User{}, user.ErrEmailExists
			}
			return user.User{}, user.ErrUsernameExists
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo userRepository) getBy(ctx context.Context, where string, args ...interface{}) (user.User, error) {
	var row userRow
	q := "SELECT " + userColumns + " FROM app_user WHERE " + where + " LIMIT 1"
	if err := repo.db.GetContext(ctx, &row, q, args...); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound)
	}
	return row.toUser(), nil
}

func (repo userRepository) GetUserByID(ctx context.Context, id int) (user.User, error) {
	return repo.getBy(ctx, "id = $1", id)
}

func (repo userRepository) GetUserByUsername(ctx context.Context, username string) (user.User, error) {
	return repo.getBy(ctx, "username = $1", username)
}

func (repo userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	return repo.getBy(ctx, "email = $1", strings.ToLower(email))
}

func (repo userRepository) GetUserByUsernameOrEmail(ctx context.Context, username string) (user.User, error) {
	return repo.getBy(ctx, "username = $1 OR email = lower($1)", username)
}

func (repo userRepository) QueryUsers(ctx context.Context, filter user.QueryFilter) ([]user.User, error) {
	var (
		conds []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	if filter.Role != 0 {
		conds = append(conds, "role_id = "+arg(int(filter.Role)))
	}
	if filter.ManagerID != 0 {
		conds = append(conds, "manager_id = "+arg(filter.ManagerID))
	}
	if filter.NoManager {
		conds = append(conds, "manager_id IS NULL")
	}

	q := "SELECT " + userColumns + " FROM app_user"
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY username ASC"

	var rows []userRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "selecting users")
	}
	users := make([]user.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, r.toUser())
	}
	return users, nil
}

func (repo userRepository) update(ctx context.Context, q string, args ...interface{}) error {
	res, err := repo.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return user.ErrNotFound
	}
	return nil
}

func (repo userRepository) SetUserManager(ctx context.Context, id int, managerID *int) error {
	return repo.update(ctx, "UPDATE app_user SET manager_id = $2 WHERE id = $1", id, null.IntFromPtr(managerID))
}

func (repo userRepository) SetUserPassword(ctx context.Context, id int, hash []byte) error {
	return repo.update(ctx, "UPDATE app_user SET password_hash = $2 WHERE id = $1", id, hash)
}
