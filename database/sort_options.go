package database

const (
	SortNameAsc     = "name_asc"
	SortNameNat     = "name_nat"
	SortDateDesc    = "date_desc"
	SortDateAsc     = "date_asc"
	SortFocalAsc    = "focal_asc"
	SortApertureAsc = "aperture_asc"
)

const DefaultSortOrder = SortNameAsc

// IsValidSortOrder checks if a string is a valid sort order constant
func IsValidSortOrder(order string) bool {
	switch order {
	case SortNameAsc, SortNameNat, SortDateDesc, SortDateAsc, SortFocalAsc, SortApertureAsc:
		return true
	default:
		return false
	}
}
