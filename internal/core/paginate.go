package core

import (
	"fmt"
	"strconv"
)

// LastPage selects the final page of a list
const LastPage = "last"

// Paginate resolves a page parameter against a list of total items.
// An empty param means the first page. The first page of an empty list is
// valid; any other page outside the list is ErrNotFound.
func Paginate(param string, total, pageSize int) (Page, error) {
	if pageSize < 1 {
		return Page{}, fmt.Errorf("page size must be positive, got %d", pageSize)
	}

	totalPages := (total + pageSize - 1) / pageSize
	if totalPages == 0 {
		totalPages = 1
	}

	var number int
	switch param {
	case "":
		number = 1
	case LastPage:
		number = totalPages
	default:
		n, err := strconv.Atoi(param)
		if err != nil {
			return Page{}, fmt.Errorf("page %q is not a number: %w", param, ErrNotFound)
		}
		number = n
	}

	if number < 1 || number > totalPages {
		return Page{}, fmt.Errorf("page %d of %d: %w", number, totalPages, ErrNotFound)
	}

	return Page{
		Number:      number,
		PageSize:    pageSize,
		TotalItems:  total,
		TotalPages:  totalPages,
		HasNext:     number < totalPages,
		HasPrevious: number > 1,
	}, nil
}
