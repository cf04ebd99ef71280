// Package redisstore implements storage.Storage on Redis.
//
// Key layout (prefix defaults to "students"):
//
//	<prefix>:seq            string  INCR counter handing out ids
//	<prefix>:ids            zset    every id, scored by id for ordered listing
//	<prefix>:email:<email>  string  id owning the email (SETNX uniqueness index)
//	<prefix>:student:<id>   hash    id, name, email, gender
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/go-redis/redis/v8"

	"github.com/aanand-mishra/student-management/internal/storage"
	"github.com/aanand-mishra/student-management/internal/types"
)

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// Store is the Redis gateway.
type Store struct {
	client *redis.Client
	prefix string
}

var _ storage.Storage = (*Store)(nil)

// New connects to Redis and verifies the connection with PING.
func New(ctx context.Context, opts Options) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redisstore.New: ping %s: %w", opts.Addr, err)
	}

	return NewWithClient(client, opts.Prefix), nil
}

// NewWithClient wraps an existing client. An empty prefix means "students".
func NewWithClient(client *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = "students"
	}
	return &Store{client: client, prefix: prefix}
}

func (s *Store) seqKey() string { return s.prefix + ":seq" }
func (s *Store) idsKey() string { return s.prefix + ":ids" }
func (s *Store) emailKey(email string) string {
	return s.prefix + ":email:" + email
}
func (s *Store) studentKey(id int64) string {
	return s.prefix + ":student:" + strconv.FormatInt(id, 10)
}

// CreateStudent reserves the email with SETNX before writing the record,
// so two concurrent inserts of the same email cannot both succeed.
func (s *Store) CreateStudent(ctx context.Context, student types.Student) (int64, error) {
	id, err := s.client.Incr(ctx, s.seqKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("CreateStudent: next id: %w", err)
	}

	reserved, err := s.client.SetNX(ctx, s.emailKey(student.Email), id, 0).Result()
	if err != nil {
		return 0, fmt.Errorf("CreateStudent: reserve email: %w", err)
	}
	if !reserved {
		return 0, storage.ErrEmailTaken
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.studentKey(id),
			"id", id,
			"name", student.Name,
			"email", student.Email,
			"gender", string(student.Gender),
		)
		pipe.ZAdd(ctx, s.idsKey(), &redis.Z{Score: float64(id), Member: id})
		return nil
	})
	if err != nil {
		// Release the reservation so the email is not locked forever.
		s.client.Del(ctx, s.emailKey(student.Email))
		return 0, fmt.Errorf("CreateStudent: write record: %w", err)
	}

	return id, nil
}

func (s *Store) GetStudentByID(ctx context.Context, id int64) (types.Student, error) {
	fields, err := s.client.HGetAll(ctx, s.studentKey(id)).Result()
	if err != nil {
		return types.Student{}, fmt.Errorf("GetStudentByID: %w", err)
	}
	if len(fields) == 0 {
		return types.Student{}, storage.ErrNotFound
	}
	return studentFromHash(fields)
}

// GetStudents reads the id index in score order and fetches every hash
// in a single pipeline round trip.
func (s *Store) GetStudents(ctx context.Context) ([]types.Student, error) {
	ids, err := s.client.ZRange(ctx, s.idsKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("GetStudents: read index: %w", err)
	}

	students := make([]types.Student, 0, len(ids))
	if len(ids) == 0 {
		return students, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.StringStringMapCmd, len(ids))
	for i, raw := range ids {
		cmds[i] = pipe.HGetAll(ctx, s.prefix+":student:"+raw)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("GetStudents: fetch records: %w", err)
	}

	for _, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			// Index entry outlived its hash (delete in flight); skip it.
			continue
		}
		st, err := studentFromHash(fields)
		if err != nil {
			return nil, fmt.Errorf("GetStudents: %w", err)
		}
		students = append(students, st)
	}

	return students, nil
}

func (s *Store) StudentExists(ctx context.Context, id int64) (bool, error) {
	n, err := s.client.Exists(ctx, s.studentKey(id)).Result()
	if err != nil {
		return false, fmt.Errorf("StudentExists: %w", err)
	}
	return n == 1, nil
}

func (s *Store) EmailExists(ctx context.Context, email string) (bool, error) {
	n, err := s.client.Exists(ctx, s.emailKey(email)).Result()
	if err != nil {
		return false, fmt.Errorf("EmailExists: %w", err)
	}
	return n == 1, nil
}

// DeleteStudentByID removes the hash, the email reservation and the index
// entry in one MULTI/EXEC. Deleting a missing id is a no-op.
func (s *Store) DeleteStudentByID(ctx context.Context, id int64) error {
	email, err := s.client.HGet(ctx, s.studentKey(id), "email").Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("DeleteStudentByID: read email: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.studentKey(id), s.emailKey(email))
		pipe.ZRem(ctx, s.idsKey(), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("DeleteStudentByID: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.client.Close()
}

// studentFromHash converts a student hash into the model. Redis has no
// CHECK constraint, so the gender is verified here.
func studentFromHash(fields map[string]string) (types.Student, error) {
	id, err := strconv.ParseInt(fields["id"], 10, 64)
	if err != nil {
		return types.Student{}, fmt.Errorf("parse id %q: %w", fields["id"], err)
	}
	gender := types.Gender(fields["gender"])
	if !gender.Valid() {
		return types.Student{}, fmt.Errorf("student %d: unknown gender %q", id, gender)
	}
	return types.Student{
		ID:     id,
		Name:   fields["name"],
		Email:  fields["email"],
		Gender: gender,
	}, nil
}
