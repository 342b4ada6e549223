package protocol

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionManagerCreateAssignsMonotonicIDs(t *testing.T) {
	m := NewSessionManager()
	s1 := m.Create(&bytes.Buffer{})
	s2 := m.Create(&bytes.Buffer{})

	assert.Equal(t, uint64(1), s1.ID)
	assert.Equal(t, uint64(2), s2.ID)
	assert.Equal(t, uint32(0), s1.UserID)
	assert.Equal(t, uint32(0), s1.GroupID)
}

func TestSessionManagerSetIdentityUpdatesByUserIndex(t *testing.T) {
	m := NewSessionManager()
	s := m.Create(&bytes.Buffer{})

	m.SetIdentity(s.ID, 100, 1)

	users := m.SnapshotUser(100)
	require.Len(t, users, 1)
	assert.Equal(t, s.ID, users[0].ID)
	assert.Equal(t, uint32(1), users[0].GroupID)
}

func TestSessionManagerRekeyPrunesOldUserSet(t *testing.T) {
	m := NewSessionManager()
	s := m.Create(&bytes.Buffer{})

	m.SetIdentity(s.ID, 100, 1)
	m.SetIdentity(s.ID, 200, 2)

	assert.Empty(t, m.SnapshotUser(100))
	users := m.SnapshotUser(200)
	require.Len(t, users, 1)
	assert.Equal(t, uint32(2), users[0].GroupID)
}

func TestSessionManagerMultipleSessionsPerUser(t *testing.T) {
	m := NewSessionManager()
	s1 := m.Create(&bytes.Buffer{})
	s2 := m.Create(&bytes.Buffer{})
	s3 := m.Create(&bytes.Buffer{})

	m.SetIdentity(s1.ID, 100, 1)
	m.SetIdentity(s2.ID, 100, 1)
	m.SetIdentity(s3.ID, 200, 2)

	users := m.SnapshotUser(100)
	assert.Len(t, users, 2)
}

func TestSessionManagerDestroyPrunesEmptySet(t *testing.T) {
	m := NewSessionManager()
	s := m.Create(&bytes.Buffer{})
	m.SetIdentity(s.ID, 100, 1)

	m.Destroy(s.ID)

	assert.Nil(t, m.Get(s.ID))
	assert.Empty(t, m.SnapshotUser(100))
}

func TestSessionManagerDestroyIsIdempotent(t *testing.T) {
	m := NewSessionManager()
	s := m.Create(&bytes.Buffer{})

	m.Destroy(s.ID)
	assert.NotPanics(t, func() { m.Destroy(s.ID) })
}

func TestSessionManagerDestroyUnknownIDIsNoOp(t *testing.T) {
	m := NewSessionManager()
	assert.NotPanics(t, func() { m.Destroy(999) })
}

func TestSessionManagerSnapshotGroupAndUserOrGroup(t *testing.T) {
	m := NewSessionManager()
	s1 := m.Create(&bytes.Buffer{})
	s2 := m.Create(&bytes.Buffer{})
	m.SetIdentity(s1.ID, 100, 1)
	m.SetIdentity(s2.ID, 200, 1)

	assert.Len(t, m.SnapshotGroup(1), 2)

	union := m.SnapshotUserOrGroup(100, 1)
	assert.Len(t, union, 2)
}

func TestSessionSendSerializesWrites(t *testing.T) {
	var buf bytes.Buffer
	s := &Session{Writer: &buf}
	require.NoError(t, s.Send([]byte("a")))
	require.NoError(t, s.Send([]byte("b")))
	assert.Equal(t, "ab", buf.String())
}
