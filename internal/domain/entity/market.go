package entity

import "time"

// PriceSummary is the average unit price of one product across the
// active sell orders of a day.
type PriceSummary struct {
	ProductName  string  `json:"product_name"`
	AveragePrice float64 `json:"average_price"`
	Count        int     `json:"count"`
	Unit         Unit    `json:"unit"`
}

type PriceBoard struct {
	Category ProductCategory `json:"category"`
	Day      string          `json:"day"`
	Prices   []PriceSummary  `json:"prices"`
}

type Dashboard struct {
	Role          Role                  `json:"role"`
	DisplayName   string                `json:"display_name"`
	ListingKind   ListingKind           `json:"listing_kind"`
	StatusCounts  map[ListingStatus]int `json:"status_counts"`
	TotalListings int                   `json:"total_listings"`
	RecentOwn     []*Listing            `json:"recent_own"`
	MarketFeed    []*Listing            `json:"market_feed"`
	GeneratedAt   time.Time             `json:"generated_at"`
}

type Catalog struct {
	Vegetables   []string `json:"vegetables"`
	Fruits       []string `json:"fruits"`
	Countries    []string `json:"countries"`
	Governorates []string `json:"governorates"`
	Regions      []string `json:"regions"`
}

// ProductsFor returns the advisory product names of a category.
func (c Catalog) ProductsFor(category ProductCategory) []string {
	switch category {
	case CategoryVegetables:
		return c.Vegetables
	case CategoryFruits:
		return c.Fruits
	}
	return nil
}

// DefaultCatalog is the fixed product and location vocabulary offered to clients.
func DefaultCatalog() Catalog {
	return Catalog{
		Vegetables: []string{
			"طماطم", "خيار", "فلفل", "باذنجان", "كوسة", "بصل", "ثوم", "جزر",
			"بطاطس", "بطاطا", "فاصوليا", "بازلاء", "ملوخية", "سبانخ", "جرجير",
			"خس", "كرنب", "قرنبيط", "بروكلي", "فجل",
		},
		Fruits: []string{
			"تفاح", "موز", "برتقال", "مانجو", "عنب", "فراولة", "خوخ", "مشمش",
			"كمثرى", "أناناس", "بطيخ", "شمام", "تين", "رمان", "جوافة", "كيوي",
			"ليمون", "يوسفي", "تمر",
		},
		Countries: []string{
			"مصر", "السعودية", "الإمارات", "الكويت", "قطر", "البحرين", "عمان",
			"الأردن", "لبنان", "العراق", "المغرب", "الجزائر", "تونس", "ليبيا",
		},
		Governorates: []string{
			"القاهرة", "الجيزة", "الإسكندرية", "الدقهلية", "الشرقية", "القليوبية",
			"كفر الشيخ", "الغربية", "المنوفية", "البحيرة", "الإسماعيلية", "بورسعيد",
			"السويس", "شمال سيناء", "جنوب سيناء", "الفيوم", "بني سويف", "المنيا",
			"أسيوط", "سوهاج", "قنا", "الأقصر", "أسوان", "البحر الأحمر", "الوادي الجديد", "مطروح",
		},
		Regions: []string{
			"وسط البلد", "المعادي", "الزمالك", "مدينة نصر", "الهرم", "فيصل",
			"المهندسين", "الدقي", "العجوزة", "المقطم", "التجمع الخامس", "الشيخ زايد",
			"6 أكتوبر", "العبور", "بدر", "الشروق", "النزهة", "مصر الجديدة", "شبرا الخيمة",
		},
	}
}
