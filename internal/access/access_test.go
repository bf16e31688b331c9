package access

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"vaultdrop-backend/internal/domain"
)

func TestEvaluate_OwnerGetsManage(t *testing.T) {
	ownerID := uuid.New()
	file := &domain.File{FileID: uuid.New(), OwnerID: ownerID}

	level := Evaluate(Principal{UserID: ownerID, Role: domain.RoleGuest}, file, nil)

	assert.Equal(t, Manage, level)
}

func TestEvaluate_AdminGetsManageOnAnyFile(t *testing.T) {
	file := &domain.File{FileID: uuid.New(), OwnerID: uuid.New()}

	level := Evaluate(Principal{UserID: uuid.New(), Role: domain.RoleAdmin}, file, nil)

	assert.Equal(t, Manage, level)
}

func TestEvaluate_NoShareYieldsNone(t *testing.T) {
	file := &domain.File{FileID: uuid.New(), OwnerID: uuid.New()}

	level := Evaluate(Principal{UserID: uuid.New(), Role: domain.RoleUser}, file, nil)

	assert.Equal(t, None, level)
}

func TestEvaluate_ShareDeterminesLevel(t *testing.T) {
	userID := uuid.New()
	file := &domain.File{FileID: uuid.New(), OwnerID: uuid.New()}

	viewShare := &domain.FileShare{FileID: file.FileID, UserID: userID, Permission: domain.PermissionView}
	downloadShare := &domain.FileShare{FileID: file.FileID, UserID: userID, Permission: domain.PermissionDownload}

	principal := Principal{UserID: userID, Role: domain.RoleGuest}

	assert.Equal(t, View, Evaluate(principal, file, viewShare))
	assert.Equal(t, Download, Evaluate(principal, file, downloadShare))
}

func TestLevel_Lattice(t *testing.T) {
	// MANAGE implies DOWNLOAD implies VIEW
	assert.True(t, Manage.Allows(Download))
	assert.True(t, Manage.Allows(View))
	assert.True(t, Download.Allows(View))

	assert.False(t, View.Allows(Download))
	assert.False(t, Download.Allows(Manage))
	assert.False(t, None.Allows(View))

	// Every level allows itself
	for _, l := range []Level{None, View, Download, Manage} {
		assert.True(t, l.Allows(l))
	}
}

func TestLevel_String(t *testing.T) {
	assert.Equal(t, "NONE", None.String())
	assert.Equal(t, "VIEW", View.String())
	assert.Equal(t, "DOWNLOAD", Download.String())
	assert.Equal(t, "MANAGE", Manage.String())
}
