package admin

import "time"

type Statistics struct {
	TotalUsers  int64 `json:"total_users"`
	TotalLeads  int64 `json:"total_leads"`
	TotalVideos int64 `json:"total_videos"`
}

type AdminLead struct {
	ID            uint      `json:"id"`
	Title         string    `json:"title"`
	Comments      string    `json:"comments"`
	CreatedAt     time.Time `json:"created_at"`
	VideoFilename string    `json:"video_filename"`
	VideoSize     int64     `json:"video_size"`
	HasVideo      bool      `json:"has_video"`
}

type AdminUser struct {
	ID        uint        `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Role      string      `json:"role"`
	CreatedAt time.Time   `json:"created_at"`
	Leads     []AdminLead `json:"leads"`
}

type UsersResponse struct {
	Success    bool        `json:"success"`
	Statistics Statistics  `json:"statistics"`
	Users      []AdminUser `json:"users"`
}

// DeletedData 级联删除的统计
type DeletedData struct {
	UserID         uint  `json:"user_id"`
	LeadsDeleted   int64 `json:"leads_deleted"`
	UploadsDeleted int64 `json:"uploads_deleted"`
	ChunksDeleted  int64 `json:"chunks_deleted"`
}

type DeleteUserResponse struct {
	Success     bool        `json:"success"`
	Message     string      `json:"message"`
	DeletedData DeletedData `json:"deleted_data"`
}
