package room

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

type RoomDTO struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Code         string           `json:"code"`
	CreatedBy    string           `json:"created_by"`
	CreatedAt    time.Time        `json:"created_at" example:"2025-07-27T16:05:05Z"`
	Participants []ParticipantDTO `json:"participants"`
}

type ParticipantDTO struct {
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`
}

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrCodeTaken    = errors.New("room code already exists")
)

type IRoomService interface {
	CreateRoom(ctx context.Context, name, code, creatorID, creatorName string) (*RoomDTO, error)
	JoinRoom(ctx context.Context, code, userID, userName string) (*RoomDTO, error)
	GetByCode(ctx context.Context, code string) (*RoomDTO, error)
	RoomExists(ctx context.Context, code string) (bool, error)
}

type roomService struct {
	db *sql.DB
}

func NewRoomService(db *sql.DB) IRoomService {
	return &roomService{db: db}
}

// CreateRoom records a new room under a caller-chosen code and adds the
// creator as its first participant.
func (svc *roomService) CreateRoom(ctx context.Context, name, code, creatorID, creatorName string) (*RoomDTO, error) {
	taken, err := svc.RoomExists(ctx, code)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrCodeTaken
	}

	tx, err := svc.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	id := uuid.NewString()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO rooms (id, name, code, created_by) VALUES ($1, $2, $3, $4)`,
		id, name, code, creatorID,
	)
	if err != nil {
		return nil, err
	}

	const insPart = `
	  INSERT INTO room_participants (room_id, user_id, user_name)
	       VALUES ($1, $2, $3)
	  ON CONFLICT DO NOTHING`
	if _, err = tx.ExecContext(ctx, insPart, id, creatorID, creatorName); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}

	return svc.GetByCode(ctx, code)
}

// JoinRoom adds the caller to the participant roster if not already there
// and returns the room record.
func (svc *roomService) JoinRoom(ctx context.Context, code, userID, userName string) (*RoomDTO, error) {
	var roomID string
	err := svc.db.QueryRowContext(ctx,
		`SELECT id FROM rooms WHERE code = $1`, code,
	).Scan(&roomID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, err
	}

	const insPart = `
	  INSERT INTO room_participants (room_id, user_id, user_name)
	       VALUES ($1, $2, $3)
	  ON CONFLICT DO NOTHING`
	if _, err = svc.db.ExecContext(ctx, insPart, roomID, userID, userName); err != nil {
		return nil, err
	}

	return svc.GetByCode(ctx, code)
}

func (svc *roomService) GetByCode(ctx context.Context, code string) (*RoomDTO, error) {
	const q = `SELECT id, name, code, created_by, created_at
	             FROM rooms WHERE code = $1`
	dto := &RoomDTO{}
	err := svc.db.QueryRowContext(ctx, q, code).Scan(
		&dto.ID, &dto.Name, &dto.Code, &dto.CreatedBy, &dto.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, err
	}

	const pq = `SELECT user_id, user_name
	              FROM room_participants
	             WHERE room_id = $1
	             ORDER BY joined_at`
	rows, err := svc.db.QueryContext(ctx, pq, dto.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	dto.Participants = make([]ParticipantDTO, 0, 4)
	for rows.Next() {
		var p ParticipantDTO
		if err := rows.Scan(&p.UserID, &p.UserName); err != nil {
			return nil, err
		}
		dto.Participants = append(dto.Participants, p)
	}
	return dto, rows.Err()
}

func (svc *roomService) RoomExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := svc.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM rooms WHERE code = $1)`, code,
	).Scan(&exists)
	return exists, err
}
