package enums

// ProductStatus controls catalog visibility. Only published products can be
// bought.
type ProductStatus string

const (
	ProductStatusDraft     ProductStatus = "draft"
	ProductStatusPublished ProductStatus = "published"
)

var productStatuses = []ProductStatus{ProductStatusDraft, ProductStatusPublished}

func (s ProductStatus) String() string { return string(s) }

func (s ProductStatus) IsValid() bool { return oneOf(s, productStatuses) }

func ParseProductStatus(value string) (ProductStatus, error) {
	return parse("product status", value, productStatuses, false)
}
