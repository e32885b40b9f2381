package packets

type SignupRequest struct {
	Email    string  `json:"email" binding:"required,email"`
	Password string  `json:"password" binding:"required,min=8"`
	Name     *string `json:"name"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type UpdateProfileRequest struct {
	Email string  `json:"email" binding:"required,email"`
	Name  *string `json:"name"`
}

// ScheduleRequest carries the user-editable schedule fields for both create
// and update. days_of_week is a comma-separated weekday list (0=Sunday);
// empty means fire once today. Times are "HH:MM" wall clock in timezone.
type ScheduleRequest struct {
	PlaylistURI    string  `json:"playlist_uri" binding:"required"`
	PlaylistName   *string `json:"playlist_name"`
	DeviceID       string  `json:"target_device_id" binding:"required"`
	DeviceName     *string `json:"target_device_name"`
	DaysOfWeek     string  `json:"days_of_week"`
	StartTimeLocal string  `json:"start_time_local" binding:"required"`
	StopTimeLocal  *string `json:"stop_time_local"`
	Timezone       string  `json:"timezone" binding:"required"`
	Volume         *int    `json:"volume" binding:"omitempty,min=0,max=100"`
	Shuffle        bool    `json:"shuffle_state"`
}

// PlayNowRequest starts arbitrary playback outside any schedule.
type PlayNowRequest struct {
	PlaylistURI string `json:"playlist_uri" binding:"required"`
	DeviceID    string `json:"device_id" binding:"required"`
	Volume      *int   `json:"volume" binding:"omitempty,min=0,max=100"`
	Shuffle     bool   `json:"shuffle_state"`
}
