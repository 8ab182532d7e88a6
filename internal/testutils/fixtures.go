package testutils

import (
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	leadModel "terminal-terrace/video-lead/internal/model/lead"
	uploadModel "terminal-terrace/video-lead/internal/model/upload"
	userModel "terminal-terrace/video-lead/internal/model/user"
)

// TestPassword is the plain password of every fixture user
const TestPassword = "Secret123"

// CreateTestUser creates a test user with a unique email
func CreateTestUser(db *gorm.DB, opts ...UserOption) *userModel.User {
	uniqueID := uuid.New().String()
	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		panic(fmt.Sprintf("Failed to hash password: %v", err))
	}

	testUser := &userModel.User{
		Email:        fmt.Sprintf("test_%s@example.com", uniqueID),
		Name:         "Test User",
		PasswordHash: string(hash),
		Role:         userModel.RoleUser,
	}

	for _, opt := range opts {
		opt(testUser)
	}

	if err := db.Create(testUser).Error; err != nil {
		panic(fmt.Sprintf("Failed to create test user: %v", err))
	}
	return testUser
}

// UserOption configures test user
type UserOption func(*userModel.User)

// WithEmail sets the email
func WithEmail(email string) UserOption {
	return func(u *userModel.User) {
		u.Email = email
	}
}

// WithName sets the display name
func WithName(name string) UserOption {
	return func(u *userModel.User) {
		u.Name = name
	}
}

// WithRole sets the role
func WithRole(role string) UserOption {
	return func(u *userModel.User) {
		u.Role = role
	}
}

// CreateTestLead creates a lead with a small video payload
func CreateTestLead(db *gorm.DB, userID uint, opts ...LeadOption) *leadModel.Lead {
	data := []byte("test-video")
	testLead := &leadModel.Lead{
		UserID:           userID,
		Title:            "Test lead",
		Comments:         "Test comments",
		VideoData:        data,
		VideoFilename:    "video.mp4",
		VideoContentType: "video/mp4",
		VideoSize:        int64(len(data)),
	}

	for _, opt := range opts {
		opt(testLead)
	}

	if err := db.Create(testLead).Error; err != nil {
		panic(fmt.Sprintf("Failed to create test lead: %v", err))
	}
	return testLead
}

// LeadOption configures test lead
type LeadOption func(*leadModel.Lead)

// WithTitle sets the title
func WithTitle(title string) LeadOption {
	return func(l *leadModel.Lead) {
		l.Title = title
	}
}

// WithVideo sets the video payload and size
func WithVideo(data []byte) LeadOption {
	return func(l *leadModel.Lead) {
		l.VideoData = data
		l.VideoSize = int64(len(data))
	}
}

// CreateTestUpload creates an active chunked upload session
func CreateTestUpload(db *gorm.DB, userID uint, totalChunks int) *uploadModel.ChunkedUpload {
	session := &uploadModel.ChunkedUpload{
		UploadID:    uuid.New().String(),
		UserID:      userID,
		Filename:    "video.mp4",
		Title:       "Upload",
		ContentType: "video/mp4",
		TotalSize:   int64(totalChunks),
		TotalChunks: totalChunks,
		Status:      uploadModel.StatusActive,
	}
	if err := db.Create(session).Error; err != nil {
		panic(fmt.Sprintf("Failed to create test upload: %v", err))
	}
	return session
}

// CreateTestChunk stores one chunk of an upload
func CreateTestChunk(db *gorm.DB, uploadID string, index int, data []byte) *uploadModel.UploadChunk {
	chunk := &uploadModel.UploadChunk{
		UploadID:   uploadID,
		ChunkIndex: index,
		ChunkData:  data,
		ChunkSize:  len(data),
	}
	if err := db.Create(chunk).Error; err != nil {
		panic(fmt.Sprintf("Failed to create test chunk: %v", err))
	}
	return chunk
}
