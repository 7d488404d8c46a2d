package models

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportErrorLogKeepsHeadAndTail(t *testing.T) {
	var log ImportErrorLog

	for i := 0; i < 250; i++ {
		log.Append(ImportError{RowIndex: i, Message: fmt.Sprintf("error %d", i)})
	}

	assert.Equal(t, 250, log.Total)
	require.Len(t, log.First, 50)
	require.Len(t, log.Last, 50)

	assert.Equal(t, 0, log.First[0].RowIndex)
	assert.Equal(t, 49, log.First[49].RowIndex)
	assert.Equal(t, 200, log.Last[0].RowIndex)
	assert.Equal(t, 249, log.Last[49].RowIndex)

	entries := log.Entries()
	assert.Len(t, entries, 100)
}

func TestImportErrorLogSmall(t *testing.T) {
	var log ImportErrorLog
	log.Append(ImportError{RowIndex: 3, Field: "name", Message: "name is required"})

	assert.Equal(t, 1, log.Total)
	assert.Len(t, log.First, 1)
	assert.Empty(t, log.Last)
}

func TestImportErrorLogScanValueRoundTrip(t *testing.T) {
	var log ImportErrorLog
	log.Append(
		ImportError{RowIndex: 0, Field: "email", Message: "bad email"},
		ImportError{RowIndex: 7, Message: "row rejected"},
	)

	value, err := log.Value()
	require.NoError(t, err)

	var restored ImportErrorLog
	require.NoError(t, restored.Scan(value))
	assert.Equal(t, log, restored)

	var fromNil ImportErrorLog
	require.NoError(t, fromNil.Scan(nil))
	assert.Zero(t, fromNil.Total)
}

func TestIsTerminalStatus(t *testing.T) {
	assert.False(t, IsTerminalStatus(StatusPending))
	assert.False(t, IsTerminalStatus(StatusInProgress))
	assert.True(t, IsTerminalStatus(StatusCompleted))
	assert.True(t, IsTerminalStatus(StatusFailed))
	assert.True(t, IsTerminalStatus(StatusRolledBack))
}

func TestValidDuplicateHandling(t *testing.T) {
	assert.True(t, ValidDuplicateHandling(DuplicateSkip))
	assert.True(t, ValidDuplicateHandling(DuplicateOverwrite))
	assert.True(t, ValidDuplicateHandling(DuplicateMerge))
	assert.False(t, ValidDuplicateHandling("upsert"))
	assert.False(t, ValidDuplicateHandling(""))
}

func TestFieldMappingListScan(t *testing.T) {
	raw, err := json.Marshal(FieldMappingList{
		{SourceColumn: "Customer Name", TargetField: "name"},
		{SourceColumn: "Phone", TargetField: "phone", Transform: TransformString},
	})
	require.NoError(t, err)

	var list FieldMappingList
	require.NoError(t, list.Scan(raw))
	require.Len(t, list, 2)
	assert.Equal(t, "name", list[0].TargetField)
}
