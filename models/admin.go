package models

// AdminUser is the backend's view of a logged-in back-office user.
type AdminUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// LoginRequest is forwarded to the backend's auth endpoint.
type LoginRequest struct {
	Email    string `json:"email" form:"email" binding:"required,email"`
	Password string `json:"password" form:"password" binding:"required"`
}

type LoginResponse struct {
	Token string    `json:"token"`
	User  AdminUser `json:"user"`
}

// DashboardStats summarises the business for the back-office landing page.
type DashboardStats struct {
	TotalBookings     int       `json:"totalBookings"`
	PendingBookings   int       `json:"pendingBookings"`
	UpcomingCheckIns  int       `json:"upcomingCheckIns"`
	OccupancyRate     float64   `json:"occupancyRate"`
	RevenueThisMonth  float64   `json:"revenueThisMonth"`
	Currency          string    `json:"currency"`
	TotalGuests       int       `json:"totalGuests"`
	ActiveOffers      int       `json:"activeOffers"`
	RecentBookings    []Booking `json:"recentBookings"`
	NewInquiries      int64     `json:"newInquiries"`
	UnprocessedEvents int64     `json:"unprocessedEvents,omitempty"`
}
