package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMockUserRepo(t *testing.T) (*UserSQLite, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet sqlmock expectations: %v", err)
		}
		_ = db.Close()
	})
	return NewUserSQLite(db), mock
}

func TestUserSQLite_Create(t *testing.T) {
	insert := regexp.QuoteMeta(insertUserSQL)

	tests := []struct {
		name       string
		expect     func(m sqlmock.Sqlmock)
		wantID     int
		wantErrIs  error
		wantErrStr string
	}{
		{
			name: "success",
			expect: func(m sqlmock.Sqlmock) {
				m.ExpectExec(insert).WithArgs("ops", "h1").WillReturnResult(sqlmock.NewResult(42, 1))
			},
			wantID: 42,
		},
		{
			name: "duplicate username",
			expect: func(m sqlmock.Sqlmock) {
				m.ExpectExec(insert).WithArgs("ops", "h1").
					WillReturnError(errors.New("constraint failed: UNIQUE constraint failed: users.username (2067)"))
			},
			wantErrIs: ErrUserExists,
		},
		{
			name: "exec error",
			expect: func(m sqlmock.Sqlmock) {
				m.ExpectExec(insert).WithArgs("ops", "h1").WillReturnError(errors.New("disk I/O error"))
			},
			wantErrStr: "disk I/O error",
		},
		{
			name: "last insert id error",
			expect: func(m sqlmock.Sqlmock) {
				m.ExpectExec(insert).WithArgs("ops", "h1").
					WillReturnResult(sqlmock.NewErrorResult(errors.New("no last id")))
			},
			wantErrStr: "last insert id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newMockUserRepo(t)
			tt.expect(mock)

			id, err := repo.Create(context.Background(), "ops", "h1")

			switch {
			case tt.wantErrIs != nil:
				if !errors.Is(err, tt.wantErrIs) {
					t.Fatalf("err = %v, want %v", err, tt.wantErrIs)
				}
			case tt.wantErrStr != "":
				if err == nil || !strings.Contains(err.Error(), tt.wantErrStr) {
					t.Fatalf("err = %v, want containing %q", err, tt.wantErrStr)
				}
				if errors.Is(err, ErrUserExists) {
					t.Fatal("plain failures must not look like duplicates")
				}
			default:
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
			}
			if id != tt.wantID {
				t.Fatalf("id = %d, want %d", id, tt.wantID)
			}
		})
	}
}

func TestUserSQLite_GetByUsername(t *testing.T) {
	query := regexp.QuoteMeta(selectUserByUsernameSQL)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		repo, mock := newMockUserRepo(t)
		mock.ExpectQuery(query).WithArgs("ops").
			WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hash"}).AddRow(7, "ops", "h123"))

		u, err := repo.GetByUsername(ctx, "ops")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if u == nil || u.ID != 7 || u.Username != "ops" || u.PasswordHash != "h123" {
			t.Fatalf("unexpected user %+v", u)
		}
	})

	t.Run("missing", func(t *testing.T) {
		repo, mock := newMockUserRepo(t)
		mock.ExpectQuery(query).WithArgs("ghost").WillReturnError(sql.ErrNoRows)

		u, err := repo.GetByUsername(ctx, "ghost")
		if err != nil || u != nil {
			t.Fatalf("got (%+v, %v), want (nil, nil)", u, err)
		}
	})

	t.Run("query error", func(t *testing.T) {
		repo, mock := newMockUserRepo(t)
		mock.ExpectQuery(query).WithArgs("ops").WillReturnError(errors.New("db query failed"))

		u, err := repo.GetByUsername(ctx, "ops")
		if err == nil || !strings.Contains(err.Error(), `get user "ops"`) {
			t.Fatalf("err = %v", err)
		}
		if u != nil {
			t.Fatalf("expected nil user on error, got %+v", u)
		}
	})
}

func TestUserSQLite_Count(t *testing.T) {
	repo, mock := newMockUserRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta(countUsersSQL)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	n, err := repo.Count(context.Background())
	if err != nil || n != 3 {
		t.Fatalf("Count = %d, %v", n, err)
	}
}
