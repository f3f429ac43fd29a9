package common

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
)

const (
	DefaultLimit  = 100
	MaxLimit      = 1000
	DefaultOffset = 0
	OrderDesc     = "DESC"
	OrderAsc      = "ASC"
)

type Pagination struct {
	Limit  int
	Offset int
	Order  string
}

type PaginationResponse struct {
	NextKey *string `json:"next_key"`
	Total   string  `json:"total"`
}

func ParsePagination(c *fiber.Ctx) (*Pagination, error) {
	limit := c.QueryInt("pagination.limit", DefaultLimit)
	if limit < 1 || limit > MaxLimit {
		return nil, fmt.Errorf("pagination.limit must be between 1 and %d", MaxLimit)
	}

	offset := c.QueryInt("pagination.offset", DefaultOffset)
	if offset < 0 {
		return nil, errors.New("pagination.offset cannot be negative")
	}

	order := OrderDesc
	if !c.QueryBool("pagination.reverse", true) {
		order = OrderAsc
	}

	return &Pagination{
		Limit:  limit,
		Offset: offset,
		Order:  order,
	}, nil
}

// ToResponse reports the offset of the next page, nil on the last page
func (p *Pagination) ToResponse(total int64) PaginationResponse {
	var nextKey *string
	if next := int64(p.Offset + p.Limit); next < total {
		s := strconv.FormatInt(next, 10)
		nextKey = &s
	}

	return PaginationResponse{
		NextKey: nextKey,
		Total:   strconv.FormatInt(total, 10),
	}
}
