package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"fileharbor/internal/entity"
	"fileharbor/internal/model"
	"fileharbor/internal/notify"
	"fileharbor/internal/storage"
)

// fakeRepo 内存版 Repository，测试用。
type fakeRepo struct {
	mu         sync.Mutex
	users      map[uint]*entity.DbUser
	files      map[uint]*entity.DbFile
	nextUserID uint
	nextFileID uint

	createFileErr error
	updateUserErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		users:      make(map[uint]*entity.DbUser),
		files:      make(map[uint]*entity.DbFile),
		nextUserID: 1,
		nextFileID: 1,
	}
}

func (f *fakeRepo) CreateUser(_ context.Context, user *entity.DbUser) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if strings.EqualFold(u.Email, user.Email) || strings.EqualFold(u.Username, user.Username) {
			return gorm.ErrDuplicatedKey
		}
	}
	user.ID = f.nextUserID
	f.nextUserID++
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt
	clone := *user
	f.users[user.ID] = &clone
	return nil
}

func (f *fakeRepo) UpdateUser(_ context.Context, id uint, updates entity.UserUpdates) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateUserErr != nil {
		return f.updateUserErr
	}
	user, ok := f.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if updates.Email != nil {
		user.Email = *updates.Email
	}
	if updates.Username != nil {
		user.Username = *updates.Username
	}
	if updates.DisplayName != nil {
		user.DisplayName = *updates.DisplayName
	}
	if updates.Role != nil {
		user.Role = *updates.Role
	}
	if updates.PasswordHash != nil {
		user.PasswordHash = *updates.PasswordHash
	}
	if updates.IsActive != nil {
		user.IsActive = *updates.IsActive
	}
	if updates.LastLoginAt != nil {
		user.LastLoginAt = updates.LastLoginAt
	}
	user.UpdatedAt = time.Now().UTC()
	return nil
}

func (f *fakeRepo) GetUserByIdentifier(_ context.Context, identifier string) (*entity.DbUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	lowered := strings.ToLower(strings.TrimSpace(identifier))
	for _, u := range f.users {
		if strings.ToLower(u.Email) == lowered || strings.ToLower(u.Username) == lowered {
			clone := *u
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) GetUserByEmail(_ context.Context, email string) (*entity.DbUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	lowered := strings.ToLower(strings.TrimSpace(email))
	for _, u := range f.users {
		if strings.ToLower(u.Email) == lowered {
			clone := *u
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) GetUserByID(_ context.Context, id uint) (*entity.DbUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *user
	return &clone, nil
}

func (f *fakeRepo) FindUserByEmailOrUsername(_ context.Context, email, username string) (*entity.DbUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	le := strings.ToLower(strings.TrimSpace(email))
	lu := strings.ToLower(strings.TrimSpace(username))
	for _, u := range f.users {
		if (le != "" && strings.ToLower(u.Email) == le) || (lu != "" && strings.ToLower(u.Username) == lu) {
			clone := *u
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) ListUsers(_ context.Context, _ *entity.UserQuery) ([]entity.DbUser, *entity.Meta, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	users := make([]entity.DbUser, 0, len(f.users))
	for _, u := range f.users {
		users = append(users, *u)
	}
	meta := &entity.Meta{Page: 1, PageSize: int64(len(users)), Total: int64(len(users))}
	return users, meta, nil
}

func (f *fakeRepo) CountUsers(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.users)), nil
}

func (f *fakeRepo) RotateRefreshToken(_ context.Context, userID uint, previous *string, token string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[userID]
	if !ok {
		return entity.ErrRefreshRotationConflict
	}
	if previous == nil {
		if user.RefreshToken != nil {
			return entity.ErrRefreshRotationConflict
		}
	} else if user.RefreshToken == nil || *user.RefreshToken != *previous {
		return entity.ErrRefreshRotationConflict
	}
	user.RefreshToken = &token
	user.RefreshTokenExpiresAt = &expiresAt
	return nil
}

func (f *fakeRepo) ClearRefreshToken(_ context.Context, userID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[userID]
	if !ok {
		return nil
	}
	user.RefreshToken = nil
	user.RefreshTokenExpiresAt = nil
	return nil
}

func (f *fakeRepo) CreateFile(_ context.Context, file *entity.DbFile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createFileErr != nil {
		return f.createFileErr
	}
	file.ID = f.nextFileID
	f.nextFileID++
	file.CreatedAt = time.Now().UTC()
	file.UpdatedAt = file.CreatedAt
	clone := *file
	f.files[file.ID] = &clone
	return nil
}

func (f *fakeRepo) GetFileByID(_ context.Context, id uint) (*entity.DbFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	file, ok := f.files[id]
	if !ok || file.DeletedAt.Valid {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *file
	return &clone, nil
}

func (f *fakeRepo) ListFiles(_ context.Context, _ *entity.FileQuery) ([]entity.DbFile, *entity.Meta, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	files := make([]entity.DbFile, 0, len(f.files))
	for _, file := range f.files {
		if file.DeletedAt.Valid {
			continue
		}
		files = append(files, *file)
	}
	meta := &entity.Meta{Page: 1, PageSize: int64(len(files)), Total: int64(len(files))}
	return files, meta, nil
}

func (f *fakeRepo) SoftDeleteFile(_ context.Context, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	file, ok := f.files[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	file.DeletedAt = gorm.DeletedAt{Time: time.Now().UTC(), Valid: true}
	return nil
}

func (f *fakeRepo) HardDeleteFile(_ context.Context, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.files, id)
	return nil
}

func (f *fakeRepo) ListFilesDeletedBefore(_ context.Context, cutoff time.Time) ([]entity.DbFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var files []entity.DbFile
	for _, file := range f.files {
		if file.DeletedAt.Valid && file.DeletedAt.Time.Before(cutoff) {
			files = append(files, *file)
		}
	}
	return files, nil
}

var _ model.Repository = (*fakeRepo)(nil)

// fakeDriver 内存版存储驱动，测试用。
type fakeDriver struct {
	mu      sync.Mutex
	objects map[string][]byte

	uploadErr error
	deleteErr error
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{objects: make(map[string][]byte)}
}

func (f *fakeDriver) Name() string { return "fake" }

func (f *fakeDriver) Upload(_ context.Context, data []byte, filename, _ string) (storage.UploadResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return storage.UploadResult{}, f.uploadErr
	}
	f.objects[filename] = append([]byte(nil), data...)
	return storage.UploadResult{Path: filename, URL: "https://cdn.example.com/" + filename}, nil
}

func (f *fakeDriver) Delete(_ context.Context, filename string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.objects, filename)
	return nil
}

func (f *fakeDriver) URL(_ context.Context, filename string, isPublic bool) (string, error) {
	if !isPublic {
		return "https://cdn.example.com/signed/" + filename, nil
	}
	return "https://cdn.example.com/" + filename, nil
}

func (f *fakeDriver) Exists(_ context.Context, filename string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[filename]
	return ok
}

var _ storage.Driver = (*fakeDriver)(nil)

// fakeSender 记录通知调用，测试用。
type fakeSender struct {
	mu       sync.Mutex
	welcomes []string
	resets   []notify.PasswordResetData

	resetErr error
	done     chan struct{}
}

func newFakeSender() *fakeSender {
	return &fakeSender{done: make(chan struct{}, 8)}
}

func (f *fakeSender) SendWelcome(_ context.Context, email string, _ notify.WelcomeData) error {
	f.mu.Lock()
	f.welcomes = append(f.welcomes, email)
	f.mu.Unlock()
	select {
	case f.done <- struct{}{}:
	default:
	}
	return nil
}

func (f *fakeSender) SendPasswordReset(_ context.Context, _ string, data notify.PasswordResetData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.resetErr != nil {
		return f.resetErr
	}
	f.resets = append(f.resets, data)
	return nil
}

var _ notify.Sender = (*fakeSender)(nil)

// waitWelcome 等待异步欢迎通知完成。
func (f *fakeSender) waitWelcome(timeout time.Duration) error {
	select {
	case <-f.done:
		return nil
	case <-time.After(timeout):
		return errors.New("welcome notification was not sent")
	}
}

func (f *fakeSender) welcomeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.welcomes)
}

// seedUser 直接写入一个已哈希密码的用户。
func seedUser(f *fakeRepo, email, username, passwordHash, role string) *entity.DbUser {
	user := &entity.DbUser{
		Email:        email,
		Username:     username,
		PasswordHash: passwordHash,
		Role:         role,
		IsActive:     true,
	}
	if err := f.CreateUser(context.Background(), user); err != nil {
		panic(fmt.Sprintf("seed user: %v", err))
	}
	return user
}
