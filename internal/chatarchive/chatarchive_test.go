package chatarchive

import (
	"context"
	"fmt"
	"reflect"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cybermeetgo/internal/ws"
)

// xaddMatch compares XADD commands without depending on field order:
// go-redis serializes XAddArgs.Values from a map, so the field-value
// pairs appear in random order and redismock's positional DeepEqual
// match is flaky. The positional prefix (command, stream, ID) and the
// full set of field-value pairs must still match exactly.
func xaddMatch(expected, actual []interface{}) error {
	if len(expected) != len(actual) {
		return fmt.Errorf("wrong number of args: expected %v, got %v", expected, actual)
	}
	for i := 0; i < 3 && i < len(expected); i++ {
		if fmt.Sprint(expected[i]) != fmt.Sprint(actual[i]) {
			return fmt.Errorf("arg %d: expected %v, got %v", i, expected[i], actual[i])
		}
	}
	pairs := func(args []interface{}) map[string]string {
		m := make(map[string]string)
		for i := 3; i+1 < len(args); i += 2 {
			m[fmt.Sprint(args[i])] = fmt.Sprint(args[i+1])
		}
		return m
	}
	if want, got := pairs(expected), pairs(actual); !reflect.DeepEqual(want, got) {
		return fmt.Errorf("field-value pairs not equal: expected %v, got %v", want, got)
	}
	return nil
}

func TestArchiveAppendsToStream(t *testing.T) {
	rdc, mock := redismock.NewClientMock()
	a := New(rdc)

	mock.CustomMatch(xaddMatch).ExpectXAdd(&redis.XAddArgs{
		Stream: "chat_stream",
		Values: map[string]any{
			"room":   "ABC123",
			"sender": "conn-1",
			"name":   "alice",
			"text":   "hi",
			"at":     "1700000000",
		},
	}).SetVal("1-0")

	a.Archive(context.Background(), ws.ChatRecord{
		Room:       "ABC123",
		SenderID:   "conn-1",
		SenderName: "alice",
		Text:       "hi",
		At:         1700000000,
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestArchiveSwallowsStreamErrors(t *testing.T) {
	rdc, mock := redismock.NewClientMock()
	a := New(rdc)

	mock.CustomMatch(xaddMatch).ExpectXAdd(&redis.XAddArgs{
		Stream: "chat_stream",
		Values: map[string]any{
			"room":   "ABC123",
			"sender": "conn-1",
			"name":   "alice",
			"text":   "hi",
			"at":     "1700000000",
		},
	}).SetErr(assert.AnError)

	// Must not panic or surface anything: persistence is fire-and-forget.
	a.Archive(context.Background(), ws.ChatRecord{
		Room:       "ABC123",
		SenderID:   "conn-1",
		SenderName: "alice",
		Text:       "hi",
		At:         1700000000,
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPersistInsertsEveryEntry(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO messages").
		WithArgs("ABC123", "conn-1", "alice", "hi", int64(1700000000)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO messages").
		WithArgs("ABC123", "conn-2", "bob", "hey", int64(1700000005)).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	msgs := []redis.XMessage{
		{ID: "1-0", Values: map[string]any{
			"room": "ABC123", "sender": "conn-1", "name": "alice", "text": "hi", "at": "1700000000",
		}},
		{ID: "2-0", Values: map[string]any{
			"room": "ABC123", "sender": "conn-2", "name": "bob", "text": "hey", "at": "1700000005",
		}},
	}
	require.NoError(t, persist(context.Background(), db, msgs))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPersistRollsBackOnInsertFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO messages").
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	msgs := []redis.XMessage{
		{ID: "1-0", Values: map[string]any{
			"room": "ABC123", "sender": "conn-1", "name": "alice", "text": "hi", "at": "1700000000",
		}},
	}
	assert.Error(t, persist(context.Background(), db, msgs))
	require.NoError(t, mock.ExpectationsWereMet())
}
