package listings

import (
	"io"
	"mime/multipart"
	"strconv"
	"strings"

	listsvc "techtrust-backend/internal/application/listings"
	"techtrust-backend/internal/domain"
	"techtrust-backend/internal/infrastructure/storage"
	"techtrust-backend/internal/middleware"
	"techtrust-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Handlers struct {
	Service *listsvc.Service
}

// listingRequest is the create/edit form. Files arrive as multipart "images".
type listingRequest struct {
	Type           string   `json:"type" form:"type"`
	Title          string   `json:"title" form:"title"`
	Description    string   `json:"description" form:"description"`
	Category       string   `json:"category" form:"category"`
	Price          string   `json:"price" form:"price"`
	Budget         string   `json:"budget" form:"budget"`
	ContactName    string   `json:"contact_name" form:"contact_name"`
	ContactNumber  string   `json:"contact_number" form:"contact_number"`
	RetainedImages []string `json:"retained_images" form:"retained_images"`
}

func (r listingRequest) form() domain.ListingForm {
	return domain.ListingForm{
		Type:          r.Type,
		Title:         r.Title,
		Description:   r.Description,
		Category:      r.Category,
		Price:         r.Price,
		Budget:        r.Budget,
		ContactName:   r.ContactName,
		ContactNumber: r.ContactNumber,
	}
}

type deleteRequest struct {
	ConfirmationToken string `json:"confirmation_token" form:"confirmation_token"`
}

// GET /api/v1/listings?q=&category=&sort=&type=&page=&action=
// Query params that are present, even empty, override the caller's saved params.
func (h *Handlers) Browse(c *fiber.Ctx) error {
	params := queryParams(c).Apply(h.Service.ParamsFor(c.UserContext(), middleware.GetPrincipal(c)))

	state := listsvc.NewBrowseState()
	if t := domain.ListingType(c.Query("type")); t.Valid() {
		state.Type = t
	}
	if p, err := strconv.Atoi(c.Query("page")); err == nil {
		state.Page = p
	}
	switch c.Query("action") {
	case "toggle":
		state.Toggle()
	case "next":
		state.Next(h.Service.Browse(params, state).TotalPages)
	case "prev":
		state.Prev()
	}

	page := h.Service.Browse(params, state)
	return response.Success(c, "Listings fetched successfully", page, fiber.Map{
		"params":           params,
		"total_unfiltered": h.Service.Store.Count(),
	})
}

// GET /api/v1/listings/categories
func (h *Handlers) Categories(c *fiber.Ctx) error {
	return response.Success(c, "Categories fetched successfully", h.Service.Store.Categories(), nil)
}

// POST /api/v1/listings/refresh
func (h *Handlers) Refresh(c *fiber.Ctx) error {
	if err := h.Service.Store.Refresh(c.UserContext()); err != nil {
		return err
	}
	return response.Success(c, "Listings refreshed", fiber.Map{"count": h.Service.Store.Count()}, nil)
}

// GET /api/v1/listings/params: the caller's saved browse params, defaults when signed out.
func (h *Handlers) GetParams(c *fiber.Ctx) error {
	return response.Success(c, "View params fetched", h.Service.ParamsFor(c.UserContext(), middleware.GetPrincipal(c)), nil)
}

// PUT /api/v1/listings/params (auth): updates the caller's saved search/filter/sort params.
func (h *Handlers) SetParams(c *fiber.Ctx) error {
	var req listsvc.ParamsUpdate
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	params, err := h.Service.UpdateParams(c.UserContext(), middleware.GetPrincipal(c), req)
	if err != nil {
		return err
	}
	return response.Success(c, "View params updated", params, nil)
}

// GET /api/v1/listings/:id
func (h *Handlers) Detail(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "Invalid listing id", fiber.StatusBadRequest, nil)
	}
	detail, err := h.Service.Detail(c.UserContext(), id, middleware.GetPrincipal(c))
	if err != nil {
		return err
	}
	return response.Success(c, "Listing fetched successfully", detail, nil)
}

// POST /api/v1/listings (multipart)
func (h *Handlers) Create(c *fiber.Ctx) error {
	var req listingRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	files, err := uploadedFiles(c)
	if err != nil {
		return response.Error(c, "Invalid multipart form", fiber.StatusBadRequest, nil)
	}
	listing, err := h.Service.Create(c.UserContext(), middleware.GetPrincipal(c), req.form(), files)
	if err != nil {
		return err
	}
	return response.SuccessCreated(c, "Listing created successfully", listing, nil)
}

// PUT /api/v1/listings/:id (multipart)
func (h *Handlers) Edit(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "Invalid listing id", fiber.StatusBadRequest, nil)
	}
	var req listingRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	files, err := uploadedFiles(c)
	if err != nil {
		return response.Error(c, "Invalid multipart form", fiber.StatusBadRequest, nil)
	}
	listing, err := h.Service.Edit(c.UserContext(), middleware.GetPrincipal(c), id, req.form(), req.RetainedImages, files)
	if err != nil {
		return err
	}
	return response.Success(c, "Listing updated successfully", listing, nil)
}

// POST /api/v1/listings/:id/delete-request
func (h *Handlers) RequestDelete(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "Invalid listing id", fiber.StatusBadRequest, nil)
	}
	req, err := h.Service.RequestDelete(c.UserContext(), middleware.GetPrincipal(c), id)
	if err != nil {
		return err
	}
	return response.Success(c, "Confirm to delete this listing", req, nil)
}

// DELETE /api/v1/listings/:id: body or query confirmation_token.
func (h *Handlers) Delete(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "Invalid listing id", fiber.StatusBadRequest, nil)
	}
	token := c.Query("confirmation_token")
	if token == "" && len(c.Body()) > 0 {
		var req deleteRequest
		if err := c.BodyParser(&req); err == nil {
			token = req.ConfirmationToken
		}
	}
	if err := h.Service.ConfirmDelete(c.UserContext(), middleware.GetPrincipal(c), id, token); err != nil {
		return err
	}
	return response.Success(c, "Listing deleted successfully", fiber.Map{"id": id}, nil)
}

// GET /api/v1/listings/:id/events
func (h *Handlers) Events(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "Invalid listing id", fiber.StatusBadRequest, nil)
	}
	events, err := h.Service.Events(c.UserContext(), middleware.GetPrincipal(c), id)
	if err != nil {
		return err
	}
	return response.Success(c, "Listing events fetched successfully", events, nil)
}

// GET /api/v1/me/listings?type=all|sell|buy&sort=latest|oldest|price-high|price-low
func (h *Handlers) MyListings(c *fiber.Ctx) error {
	filterType := c.Query("type", listsvc.FilterAll)
	sortOpt := c.Query("sort", listsvc.SortLatest)
	rows, err := h.Service.UserListings(c.UserContext(), middleware.GetPrincipal(c), filterType, sortOpt)
	if err != nil {
		return err
	}
	return response.Success(c, "User listings fetched successfully", rows, fiber.Map{
		"type":  filterType,
		"sort":  sortOpt,
		"count": len(rows),
	})
}

func queryParams(c *fiber.Ctx) listsvc.ParamsUpdate {
	args := c.Context().QueryArgs()
	var u listsvc.ParamsUpdate
	if args.Has("q") {
		v := c.Query("q")
		u.SearchQuery = &v
	}
	if args.Has("category") {
		v := c.Query("category")
		u.FilterCategory = &v
	}
	if args.Has("sort") {
		v := c.Query("sort")
		u.SortOption = &v
	}
	return u
}

// uploadedFiles returns the multipart "images" files, or none for non-multipart bodies.
func uploadedFiles(c *fiber.Ctx) ([]storage.File, error) {
	if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		return nil, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, err
	}
	headers := form.File["images"]
	files := make([]storage.File, 0, len(headers))
	for _, fh := range headers {
		files = append(files, fileFromHeader(fh))
	}
	return files, nil
}

func fileFromHeader(fh *multipart.FileHeader) storage.File {
	return storage.File{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Open: func() (io.ReadCloser, error) {
			f, err := fh.Open()
			if err != nil {
				return nil, err
			}
			return f, nil
		},
	}
}
