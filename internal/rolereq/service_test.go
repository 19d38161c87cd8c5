package rolereq

import (
	"path/filepath"
	"testing"

	"github.com/jinzhu/gorm"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodcourt/internal/apperr"
	"foodcourt/internal/database"
	"foodcourt/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open("sqlite3", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, username, role string) *models.User {
	t.Helper()
	user := &models.User{Username: username, Password: "x", Role: role}
	require.NoError(t, db.Create(user).Error)
	return user
}

func TestCreateRequest(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	user := seedUser(t, db, "somchai", string(models.RoleUser))

	request, err := svc.Create(user.ID, string(models.RoleCooker))
	require.NoError(t, err)
	assert.Equal(t, string(models.RoleRequestPending), request.Status)
	assert.Equal(t, string(models.RoleCooker), request.Role)
}

func TestCreateRequestValidation(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	user := seedUser(t, db, "somchai", string(models.RoleUser))

	_, err := svc.Create(user.ID, "superadmin")
	assert.True(t, apperr.IsValidation(err), "unknown role: got %v", err)

	_, err = svc.Create(999, string(models.RoleCooker))
	assert.True(t, apperr.IsNotFound(err), "missing user: got %v", err)

	_, err = svc.Create(user.ID, string(models.RoleUser))
	assert.True(t, apperr.IsConflict(err), "same role: got %v", err)
}

func TestCreateRequestOnePendingPerUser(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	user := seedUser(t, db, "somchai", string(models.RoleUser))

	_, err := svc.Create(user.ID, string(models.RoleCooker))
	require.NoError(t, err)

	_, err = svc.Create(user.ID, string(models.RoleCooker))
	assert.True(t, apperr.IsConflict(err), "got %v", err)
}

func TestApprove(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	user := seedUser(t, db, "somchai", string(models.RoleUser))

	request, err := svc.Create(user.ID, string(models.RoleCooker))
	require.NoError(t, err)

	resolved, err := svc.Approve(request.ID)
	require.NoError(t, err)
	assert.Equal(t, string(models.RoleRequestAccepted), resolved.Status)

	var updated models.User
	require.NoError(t, db.First(&updated, user.ID).Error)
	assert.Equal(t, string(models.RoleCooker), updated.Role)

	// A resolved request cannot be resolved again.
	_, err = svc.Approve(request.ID)
	assert.True(t, apperr.IsConflict(err), "got %v", err)
	_, err = svc.Reject(request.ID)
	assert.True(t, apperr.IsConflict(err), "got %v", err)
}

func TestApproveRollsBackOnFailedResolution(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	user := seedUser(t, db, "somchai", string(models.RoleUser))

	request, err := svc.Create(user.ID, string(models.RoleCooker))
	require.NoError(t, err)

	// Make the request-status write abort after the role update has already
	// run, simulating a crash between the two writes.
	require.NoError(t, db.Exec(`CREATE TRIGGER block_resolution
		BEFORE UPDATE ON role_requests
		WHEN NEW.status = 'accepted'
		BEGIN SELECT RAISE(ABORT, 'resolution blocked'); END`).Error)

	_, err = svc.Approve(request.ID)
	require.Error(t, err)

	var untouched models.User
	require.NoError(t, db.First(&untouched, user.ID).Error)
	assert.Equal(t, string(models.RoleUser), untouched.Role, "role update must be rolled back")

	var stored models.RoleRequest
	require.NoError(t, db.First(&stored, request.ID).Error)
	assert.Equal(t, string(models.RoleRequestPending), stored.Status)
}

func TestReject(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	user := seedUser(t, db, "somchai", string(models.RoleUser))

	request, err := svc.Create(user.ID, string(models.RoleCooker))
	require.NoError(t, err)

	resolved, err := svc.Reject(request.ID)
	require.NoError(t, err)
	assert.Equal(t, string(models.RoleRequestRejected), resolved.Status)

	var untouched models.User
	require.NoError(t, db.First(&untouched, user.ID).Error)
	assert.Equal(t, string(models.RoleUser), untouched.Role, "rejection never touches the user")

	// The user is free to file a new request after rejection.
	_, err = svc.Create(user.ID, string(models.RoleCooker))
	assert.NoError(t, err)
}

func TestListPending(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	first := seedUser(t, db, "somchai", string(models.RoleUser))
	second := seedUser(t, db, "somsri", string(models.RoleUser))

	r1, err := svc.Create(first.ID, string(models.RoleCooker))
	require.NoError(t, err)
	r2, err := svc.Create(second.ID, string(models.RoleCooker))
	require.NoError(t, err)

	_, err = svc.Reject(r1.ID)
	require.NoError(t, err)

	pending, err := svc.ListPending()
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, r2.ID, pending[0].ID)
}

func TestApproveMissing(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)

	_, err := svc.Approve(404)
	assert.True(t, apperr.IsNotFound(err))
}
