package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/AndrewGardhouse/ticketbeast-tdd/internal/app"
	"github.com/AndrewGardhouse/ticketbeast-tdd/internal/domain"
	"github.com/AndrewGardhouse/ticketbeast-tdd/internal/format"
)

// AdminConcertService is the minimal interface needed for admin concert endpoints.
type AdminConcertService interface {
	CreateConcert(ctx context.Context, in app.CreateConcertInput) (domain.Concert, error)
	ListConcerts(ctx context.Context) ([]domain.Concert, error)
	GetConcert(ctx context.Context, concertID string) (domain.Concert, error)
	Publish(ctx context.Context, concertID string) (domain.Concert, error)
	OrdersFor(ctx context.Context, concertID, email string) ([]domain.Order, error)
}

// AdminInventoryService is the minimal interface needed for admin ticket endpoints.
type AdminInventoryService interface {
	Counts(ctx context.Context, concertID string) (domain.TicketCounts, error)
	AddTickets(ctx context.Context, concertID string, quantity int) error
	PurchaseDirect(ctx context.Context, concertID, email string, quantity int) (domain.Order, error)
}

type concertResponse struct {
	format.Listing
	Published   bool       `json:"published"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type concertDetailResponse struct {
	concertResponse
	Tickets ticketCountsResponse `json:"tickets"`
}

type ticketCountsResponse struct {
	Available int `json:"available"`
	Reserved  int `json:"reserved"`
	Sold      int `json:"sold"`
	Total     int `json:"total"`
}

type adminOrderResponse struct {
	ID string `json:"id"`
	orderResponse
	CreatedAt time.Time `json:"created_at"`
}

func newConcertResponse(c domain.Concert) concertResponse {
	return concertResponse{
		Listing:     format.NewListing(c),
		Published:   c.IsPublished(),
		PublishedAt: c.PublishedAt,
		CreatedAt:   c.CreatedAt,
	}
}

func newAdminOrderResponse(order domain.Order) adminOrderResponse {
	return adminOrderResponse{
		ID:            order.ID,
		orderResponse: newOrderResponse(order),
		CreatedAt:     order.CreatedAt,
	}
}

// AdminHandlers serves the /admin/concerts routes.
type AdminHandlers struct {
	concerts  AdminConcertService
	inventory AdminInventoryService
	log       logrus.FieldLogger
}

func NewAdminHandlers(concerts AdminConcertService, inventory AdminInventoryService, log logrus.FieldLogger) *AdminHandlers {
	return &AdminHandlers{concerts: concerts, inventory: inventory, log: log}
}

// Routes mounts the admin endpoints on r.
func (h *AdminHandlers) Routes(r chi.Router) {
	r.Get("/", h.listConcerts)
	r.Post("/", h.createConcert)
	r.Route("/{concertID}", func(r chi.Router) {
		r.Get("/", h.showConcert)
		r.Post("/publish", h.publish)
		r.Post("/tickets", h.addTickets)
		r.Get("/orders", h.listOrders)
		r.Post("/orders", h.purchaseDirect)
	})
}

func (h *AdminHandlers) listConcerts(w http.ResponseWriter, r *http.Request) {
	concerts, err := h.concerts.ListConcerts(r.Context())
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	resp := make([]concertResponse, 0, len(concerts))
	for _, c := range concerts {
		resp = append(resp, newConcertResponse(c))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *AdminHandlers) createConcert(w http.ResponseWriter, r *http.Request) {
	var in app.CreateConcertInput
	if problems := decodeFields(r, map[string]field{
		"title":                  {dst: &in.Title, msg: "must be a string"},
		"subtitle":               {dst: &in.Subtitle, msg: "must be a string"},
		"date":                   {dst: &in.Date, msg: "must be an RFC 3339 timestamp"},
		"ticket_price":           {dst: &in.TicketPrice, msg: "must be an integer number of cents"},
		"venue":                  {dst: &in.Venue, msg: "must be a string"},
		"venue_address":          {dst: &in.VenueAddress, msg: "must be a string"},
		"city":                   {dst: &in.City, msg: "must be a string"},
		"state":                  {dst: &in.State, msg: "must be a string"},
		"zip":                    {dst: &in.Zip, msg: "must be a string"},
		"additional_information": {dst: &in.AdditionalInformation, msg: "must be a string"},
		"ticket_quantity":        {dst: &in.TicketQuantity, msg: "must be an integer"},
	}); len(problems) > 0 {
		writeServiceError(w, h.log, domain.NewValidationError(withValidation(problems, in.Validate)))
		return
	}

	concert, err := h.concerts.CreateConcert(r.Context(), in)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, newConcertResponse(concert))
}

func (h *AdminHandlers) showConcert(w http.ResponseWriter, r *http.Request) {
	concertID := chi.URLParam(r, "concertID")
	concert, err := h.concerts.GetConcert(r.Context(), concertID)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	counts, err := h.inventory.Counts(r.Context(), concertID)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, concertDetailResponse{
		concertResponse: newConcertResponse(concert),
		Tickets: ticketCountsResponse{
			Available: counts.Available,
			Reserved:  counts.Reserved,
			Sold:      counts.Sold,
			Total:     counts.Total(),
		},
	})
}

func (h *AdminHandlers) publish(w http.ResponseWriter, r *http.Request) {
	concert, err := h.concerts.Publish(r.Context(), chi.URLParam(r, "concertID"))
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, newConcertResponse(concert))
}

func (h *AdminHandlers) addTickets(w http.ResponseWriter, r *http.Request) {
	var quantity int
	if problems := decodeFields(r, map[string]field{
		"quantity": {dst: &quantity, msg: "must be an integer"},
	}); len(problems) > 0 {
		writeServiceError(w, h.log, domain.NewValidationError(problems))
		return
	}

	concertID := chi.URLParam(r, "concertID")
	if err := h.inventory.AddTickets(r.Context(), concertID, quantity); err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	counts, err := h.inventory.Counts(r.Context(), concertID)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, ticketCountsResponse{
		Available: counts.Available,
		Reserved:  counts.Reserved,
		Sold:      counts.Sold,
		Total:     counts.Total(),
	})
}

func (h *AdminHandlers) purchaseDirect(w http.ResponseWriter, r *http.Request) {
	var (
		email    string
		quantity int
	)
	problems := decodeFields(r, map[string]field{
		"email":           {dst: &email, msg: "must be a string"},
		"ticket_quantity": {dst: &quantity, msg: "must be an integer"},
	})
	if len(problems) > 0 {
		writeServiceError(w, h.log, domain.NewValidationError(withValidation(problems, func() error {
			return app.ValidateEmail(email)
		})))
		return
	}

	order, err := h.inventory.PurchaseDirect(r.Context(), chi.URLParam(r, "concertID"), email, quantity)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, newAdminOrderResponse(order))
}

func (h *AdminHandlers) listOrders(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		writeServiceError(w, h.log, domain.NewValidationError(map[string]string{"email": "cannot be blank"}))
		return
	}

	orders, err := h.concerts.OrdersFor(r.Context(), chi.URLParam(r, "concertID"), email)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	resp := make([]adminOrderResponse, 0, len(orders))
	for _, order := range orders {
		resp = append(resp, newAdminOrderResponse(order))
	}
	writeJSON(w, http.StatusOK, resp)
}
