package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/dmitrijs2005/daybook/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseID(t *testing.T) {
	tests := []struct {
		in      string
		want    ID
		wantErr bool
	}{
		{in: "local:42", want: Local(42)},
		{in: "l:42", want: Local(42)},
		{in: "server:7", want: Server(7)},
		{in: "s:7", want: Server(7)},
		{in: " 1000 ", want: Local(1000)},
		{in: "remote:1", wantErr: true},
		{in: "local:abc", wantErr: true},
		{in: "local:-1", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseID(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, common.ErrInvalidID)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestID_SpacesNeverCollide(t *testing.T) {
	assert.NotEqual(t, Local(5), Server(5))
	assert.True(t, Local(5).IsLocal())
	assert.True(t, Server(5).IsServer())
	assert.True(t, ID{}.IsZero())
}

func TestID_JSONRoundTripAsText(t *testing.T) {
	type wrapper struct {
		Target ID `json:"target"`
	}
	raw, err := json.Marshal(wrapper{Target: Server(12)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"target":"server:12"}`, string(raw))

	var back wrapper
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, Server(12), back.Target)
}

func TestEntity_RefAndMatches(t *testing.T) {
	e := Entity[Task]{LocalID: 1000}
	assert.Equal(t, Local(1000), e.Ref())
	assert.False(t, e.Synced())
	assert.True(t, e.Matches(Local(1000)))
	assert.False(t, e.Matches(Server(1000)))

	sid := int64(9)
	e.ServerID = &sid
	assert.Equal(t, Server(9), e.Ref())
	assert.True(t, e.Matches(Local(1000)), "local id stays a valid handle")
	assert.True(t, e.Matches(Server(9)))
}

func TestNewChange_IDsAreDistinctWithinSameMillisecond(t *testing.T) {
	a := NewChange(ChangeCreate, 1700000000000, Local(1), nil)
	b := NewChange(ChangeCreate, 1700000000000, Local(1), nil)

	assert.NotEqual(t, a.ID, b.ID)
	assert.Regexp(t, `^create-1700000000000-[0-9a-f]{8}$`, a.ID)
	assert.Equal(t, StatusPending, a.Status)
}

func TestApplyPatch(t *testing.T) {
	due := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	base := Task{Title: "old", Status: TaskTodo, Priority: PriorityLow, DueDate: &due}

	got, err := ApplyPatch(base, map[string]any{"title": "new", "dueDate": nil})
	require.NoError(t, err)
	assert.Equal(t, "new", got.Title)
	assert.Equal(t, TaskTodo, got.Status)
	assert.Nil(t, got.DueDate)

	_, err = ApplyPatch(base, map[string]any{"title": 5})
	require.ErrorIs(t, err, common.ErrInvalidPayload)
}

func TestPatchOf_SkipsEmptyFields(t *testing.T) {
	patch, err := PatchOf(Task{Title: "x", Status: TaskDone, Priority: PriorityHigh})
	require.NoError(t, err)
	assert.Equal(t, "x", patch["title"])
	_, hasDue := patch["dueDate"]
	assert.False(t, hasDue)
}

func TestValidate(t *testing.T) {
	require.NoError(t, Task{Title: "a", Status: TaskTodo, Priority: PriorityMedium}.Validate())
	require.ErrorIs(t, Task{Status: TaskTodo, Priority: PriorityMedium}.Validate(), common.ErrInvalidPayload)
	require.ErrorIs(t, Task{Title: "a", Status: "later", Priority: PriorityMedium}.Validate(), common.ErrInvalidPayload)

	require.NoError(t, JournalEntry{Content: "hi", Mood: 3}.Validate())
	require.ErrorIs(t, JournalEntry{Content: "hi", Mood: 6}.Validate(), common.ErrInvalidPayload)
	require.ErrorIs(t, JournalEntry{}.Validate(), common.ErrInvalidPayload)

	assert.True(t, JournalEntry{Tags: []string{"Work"}}.HasTag("work"))
}
