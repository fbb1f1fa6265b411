package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"asterias/models"
)

// decodeList accepts either a bare JSON array or a {"items": [...]} page.
func decodeList[T any](raw json.RawMessage) (models.ListResponse[T], error) {
	var page models.ListResponse[T]
	raw = bytes.TrimSpace(raw)
	if bytes.HasPrefix(raw, []byte("[")) {
		if err := json.Unmarshal(raw, &page.Items); err != nil {
			return page, fmt.Errorf("backend: decoding list: %w", err)
		}
		page.Total = len(page.Items)
		return page, nil
	}
	if err := json.Unmarshal(raw, &page); err != nil {
		return page, fmt.Errorf("backend: decoding list: %w", err)
	}
	if page.Total == 0 {
		page.Total = len(page.Items)
	}
	return page, nil
}

func listOf[T any](ctx context.Context, c *Client, path string, query url.Values) (models.ListResponse[T], error) {
	var raw json.RawMessage
	if err := c.get(ctx, path, query, &raw); err != nil {
		return models.ListResponse[T]{}, err
	}
	return decodeList[T](raw)
}

// Rooms

func (c *Client) ListRooms(ctx context.Context) ([]models.Room, error) {
	page, err := listOf[models.Room](ctx, c, "/api/rooms", nil)
	return page.Items, err
}

func (c *Client) GetRoom(ctx context.Context, id string) (*models.Room, error) {
	var room models.Room
	if err := c.get(ctx, "/api/rooms/"+url.PathEscape(id), nil, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

func (c *Client) CreateRoom(ctx context.Context, in models.RoomInput) (*models.Room, error) {
	var room models.Room
	if err := c.send(ctx, http.MethodPost, "/api/rooms", in, &room, nil); err != nil {
		return nil, err
	}
	return &room, nil
}

func (c *Client) UpdateRoom(ctx context.Context, id string, in models.RoomInput) (*models.Room, error) {
	var room models.Room
	if err := c.send(ctx, http.MethodPut, "/api/rooms/"+url.PathEscape(id), in, &room, nil); err != nil {
		return nil, err
	}
	return &room, nil
}

func (c *Client) DeleteRoom(ctx context.Context, id string) error {
	return c.send(ctx, http.MethodDelete, "/api/rooms/"+url.PathEscape(id), nil, nil, nil)
}

// Offers

func (c *Client) ListOffers(ctx context.Context) ([]models.Offer, error) {
	page, err := listOf[models.Offer](ctx, c, "/api/offers", nil)
	return page.Items, err
}

func (c *Client) GetOffer(ctx context.Context, id string) (*models.Offer, error) {
	var offer models.Offer
	if err := c.get(ctx, "/api/offers/"+url.PathEscape(id), nil, &offer); err != nil {
		return nil, err
	}
	return &offer, nil
}

func (c *Client) CreateOffer(ctx context.Context, in models.OfferInput) (*models.Offer, error) {
	var offer models.Offer
	if err := c.send(ctx, http.MethodPost, "/api/offers", in, &offer, nil); err != nil {
		return nil, err
	}
	return &offer, nil
}

func (c *Client) UpdateOffer(ctx context.Context, id string, in models.OfferInput) (*models.Offer, error) {
	var offer models.Offer
	if err := c.send(ctx, http.MethodPut, "/api/offers/"+url.PathEscape(id), in, &offer, nil); err != nil {
		return nil, err
	}
	return &offer, nil
}

func (c *Client) DeleteOffer(ctx context.Context, id string) error {
	return c.send(ctx, http.MethodDelete, "/api/offers/"+url.PathEscape(id), nil, nil, nil)
}

// Gallery

func (c *Client) ListGallery(ctx context.Context) ([]models.GalleryImage, error) {
	page, err := listOf[models.GalleryImage](ctx, c, "/api/gallery", nil)
	return page.Items, err
}

func (c *Client) AddGalleryImage(ctx context.Context, in models.GalleryImageInput) (*models.GalleryImage, error) {
	var img models.GalleryImage
	if err := c.send(ctx, http.MethodPost, "/api/gallery", in, &img, nil); err != nil {
		return nil, err
	}
	return &img, nil
}

func (c *Client) DeleteGalleryImage(ctx context.Context, id string) error {
	return c.send(ctx, http.MethodDelete, "/api/gallery/"+url.PathEscape(id), nil, nil, nil)
}

// Guests

func (c *Client) ListGuests(ctx context.Context, search string, page, limit int) (models.ListResponse[models.Guest], error) {
	q := url.Values{}
	if search != "" {
		q.Set("search", search)
	}
	setPaging(q, page, limit)
	return listOf[models.Guest](ctx, c, "/api/guests", q)
}

func (c *Client) GetGuest(ctx context.Context, id string) (*models.Guest, error) {
	var g models.Guest
	if err := c.get(ctx, "/api/guests/"+url.PathEscape(id), nil, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

func (c *Client) CreateGuest(ctx context.Context, in models.GuestInput) (*models.Guest, error) {
	var g models.Guest
	if err := c.send(ctx, http.MethodPost, "/api/guests", in, &g, nil); err != nil {
		return nil, err
	}
	return &g, nil
}

func (c *Client) UpdateGuest(ctx context.Context, id string, in models.GuestInput) (*models.Guest, error) {
	var g models.Guest
	if err := c.send(ctx, http.MethodPut, "/api/guests/"+url.PathEscape(id), in, &g, nil); err != nil {
		return nil, err
	}
	return &g, nil
}

func (c *Client) DeleteGuest(ctx context.Context, id string) error {
	return c.send(ctx, http.MethodDelete, "/api/guests/"+url.PathEscape(id), nil, nil, nil)
}

// Bookings

func (c *Client) ListBookings(ctx context.Context, f models.BookingFilter) (models.ListResponse[models.Booking], error) {
	q := url.Values{}
	if f.Status != "" {
		q.Set("status", string(f.Status))
	}
	if f.From != "" {
		q.Set("from", f.From)
	}
	if f.To != "" {
		q.Set("to", f.To)
	}
	if f.RoomID != "" {
		q.Set("roomId", f.RoomID)
	}
	setPaging(q, f.Page, f.Limit)
	return listOf[models.Booking](ctx, c, "/api/bookings", q)
}

func (c *Client) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	var b models.Booking
	if err := c.get(ctx, "/api/bookings/"+url.PathEscape(id), nil, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// CreateBooking posts a paid booking. idempotencyKey lets the backend
// recognise a retried request.
func (c *Client) CreateBooking(ctx context.Context, in models.CreateBookingRequest, idempotencyKey string) (*models.Booking, error) {
	var header http.Header
	if idempotencyKey != "" {
		header = http.Header{"Idempotency-Key": {idempotencyKey}}
	}
	var b models.Booking
	if err := c.send(ctx, http.MethodPost, "/api/bookings", in, &b, header); err != nil {
		return nil, err
	}
	return &b, nil
}

func (c *Client) UpdateBookingStatus(ctx context.Context, id string, in models.StatusUpdate) (*models.Booking, error) {
	var b models.Booking
	if err := c.send(ctx, http.MethodPatch, "/api/bookings/"+url.PathEscape(id)+"/status", in, &b, nil); err != nil {
		return nil, err
	}
	return &b, nil
}

// Availability asks the backend whether the room is free and at what
// nightly rates.
func (c *Client) Availability(ctx context.Context, q models.AvailabilityQuery) (*models.Availability, error) {
	v := url.Values{}
	v.Set("roomId", q.RoomID)
	v.Set("checkIn", q.CheckIn)
	v.Set("checkOut", q.CheckOut)
	if q.Guests > 0 {
		v.Set("guests", strconv.Itoa(q.Guests))
	}
	var a models.Availability
	if err := c.get(ctx, "/api/availability", v, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// Admin and auth

func (c *Client) Dashboard(ctx context.Context) (*models.DashboardStats, error) {
	var s models.DashboardStats
	if err := c.get(ctx, "/api/admin/dashboard", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) Login(ctx context.Context, in models.LoginRequest) (*models.LoginResponse, error) {
	var out models.LoginResponse
	if err := c.send(ctx, http.MethodPost, "/api/auth/login", in, &out, nil); err != nil {
		return nil, err
	}
	if out.Token == "" {
		return nil, &APIError{Status: http.StatusBadGateway, Message: "login response carried no token"}
	}
	return &out, nil
}

// Me returns the user behind the token in ctx. It is never cached.
func (c *Client) Me(ctx context.Context) (*models.AdminUser, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, nil, nil)
	if err != nil {
		return nil, err
	}
	var u models.AdminUser
	if err := decode(body, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func setPaging(q url.Values, page, limit int) {
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
}
