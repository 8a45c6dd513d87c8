package seed

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/pharmarawasy-del/Delala/internal/publish"
	"github.com/pharmarawasy-del/Delala/internal/store"
	"github.com/pharmarawasy-del/Delala/pkg/types"

	"github.com/jackc/pgx/v5/pgxpool"
)

var fakeAdTitles = map[types.Category][]string{
	types.CategoryVehicles: {
		"[seed] تويوتا هايلكس 2018 بحالة ممتازة",
		"[seed] هيونداي اكسنت 2015 للبيع",
		"[seed] كيا سيراتو 2020 ماشية قليل",
		"[seed] لاندكروزر 2012 صفقة",
	},
	types.CategoryElectronics: {
		"[seed] ايفون 13 برو ماكس نظيف",
		"[seed] لابتوب ديل i7 للبيع",
		"[seed] تلفزيون سامسونج 55 بوصة",
		"[seed] بلايستيشن 5 مع درعين",
	},
	types.CategoryFurniture: {
		"[seed] طقم كنب 7 مقاعد شبه جديد",
		"[seed] سرير خشب زان مع مرتبة",
		"[seed] دولاب 3 دلفة خشب أصلي",
	},
	types.CategoryRealEstate: {
		"[seed] شقة غرفتين وصالة للإيجار",
		"[seed] قطعة أرض 400 متر مخططة",
		"[seed] منزل من طابقين للبيع",
	},
}

// SeedFakeAds writes demo listings so the feed has something to show during
// development. Seeded rows carry a "[seed] " title prefix so reset can find
// them.
func SeedFakeAds(ctx context.Context, pool *pgxpool.Pool, adsRepo *store.AdRepository, count int, reset bool) error {
	if count <= 0 {
		fmt.Println("Skipping fake ads seed because count <= 0")
		return nil
	}

	if reset {
		result, err := pool.Exec(ctx, `DELETE FROM ads WHERE title LIKE '[seed] %'`)
		if err != nil {
			return fmt.Errorf("failed to reset seeded fake ads: %w", err)
		}
		fmt.Printf("Removed %d previously seeded ads\n", result.RowsAffected())
	}

	cities := types.Cities()

	for i := 0; i < count; i++ {
		category := types.Categories()[rand.Intn(len(types.Categories()))]
		titles := fakeAdTitles[category]

		ad := &types.Ad{
			Title:       titles[rand.Intn(len(titles))],
			Price:       int64((rand.Intn(500) + 1) * 10000),
			City:        cities[rand.Intn(len(cities))],
			Category:    category,
			Phone:       fmt.Sprintf("09%08d", rand.Intn(100000000)),
			Description: "إعلان تجريبي للعرض أثناء التطوير",
			Images:      []string{publish.PlaceholderImageURL},
			UserName:    "بائع تجريبي",
		}

		if err := adsRepo.CreateAd(ctx, ad); err != nil {
			return fmt.Errorf("failed to seed ad %d: %w", i, err)
		}
	}

	fmt.Printf("Seeded %d fake ads\n", count)

	return nil
}
