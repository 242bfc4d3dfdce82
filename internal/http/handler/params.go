package handler

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"opsdesk/internal/http/middleware"
	"opsdesk/internal/model"
	"opsdesk/internal/service"
)

// requestError is a malformed query, path or body. serviceError answers it with 400.
type requestError struct {
	code    string
	message string
}

func (e *requestError) Error() string { return e.message }

func invalidQuery(key string) error {
	return &requestError{code: "INVALID_QUERY", message: "invalid " + key}
}

// page reads limit and offset query parameters; the service clamps them.
func page(c *fiber.Ctx) (int, int, error) {
	limit, err := strconv.Atoi(c.Query("limit", "10"))
	if err != nil {
		return 0, 0, &requestError{code: "INVALID_LIMIT", message: "invalid limit"}
	}
	offset, err := strconv.Atoi(c.Query("offset", "0"))
	if err != nil {
		return 0, 0, &requestError{code: "INVALID_OFFSET", message: "invalid offset"}
	}
	return limit, offset, nil
}

// pathID validates the :id route parameter.
func pathID(c *fiber.Ctx) (string, bool) {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return "", false
	}
	return id, true
}

func invalidID(c *fiber.Ctx) error {
	return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
}

// queryDate parses an optional YYYY-MM-DD query parameter; absent yields the zero time.
func queryDate(c *fiber.Ctx, key string) (time.Time, error) {
	v := c.Query(key)
	if v == "" {
		return time.Time{}, nil
	}
	d, err := model.ParseDate(v)
	if err != nil {
		return time.Time{}, invalidQuery(key)
	}
	return d, nil
}

// queryID reads an optional UUID query parameter such as user_id.
func queryID(c *fiber.Ctx, key string) (string, error) {
	v := c.Query(key)
	if v == "" {
		return "", nil
	}
	if _, err := uuid.Parse(v); err != nil {
		return "", invalidQuery(key)
	}
	return v, nil
}

// dateRange reads from and to.
func dateRange(c *fiber.Ctx) (time.Time, time.Time, error) {
	from, err := queryDate(c, "from")
	if err != nil {
		return from, from, err
	}
	to, err := queryDate(c, "to")
	return from, to, err
}

// queryInt parses an optional integer query parameter, returning 0 when absent.
func queryInt(c *fiber.Ctx, key string) (int, error) {
	v := c.Query(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, invalidQuery(key)
	}
	return n, nil
}

// bind decodes a JSON body into dst.
func bind(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return &requestError{code: "INVALID_BODY", message: "invalid request body"}
	}
	return nil
}

// actor returns the authenticated caller. Routes using it are always behind middleware.Auth.
func actor(c *fiber.Ctx) service.Actor {
	a, _ := middleware.ActorFrom(c)
	return a
}
