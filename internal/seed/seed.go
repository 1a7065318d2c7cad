package seed

import (
	"context"
	"errors"
	"fmt"
	"log"

	"city_parking/internal/config"
	"city_parking/internal/domain"
	"city_parking/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

// Run khởi tạo dữ liệu ban đầu cho bãi đỗ: lưới chỗ đỗ theo cấu hình và tài
// khoản admin mặc định. Chỉ chạy khi kho dữ liệu còn trống nên an toàn khi
// gọi lại ở mỗi lần khởi động.
func Run(ctx context.Context, cfg *config.Config, spotRepo repository.SpotRepository, userRepo repository.UserRepository) error {
	if err := seedSpots(ctx, cfg, spotRepo); err != nil {
		return err
	}
	return seedAdmin(ctx, userRepo)
}

func seedSpots(ctx context.Context, cfg *config.Config, spotRepo repository.SpotRepository) error {
	count, err := spotRepo.CountAll(ctx)
	if err != nil {
		return fmt.Errorf("lỗi đếm chỗ đỗ: %w", err)
	}
	if count > 0 {
		return nil
	}

	created := 0
	for level := 1; level <= cfg.SeedLevels; level++ {
		for sectionIdx := 0; sectionIdx < cfg.SeedSectionsPerLevel; sectionIdx++ {
			section := string(rune('A' + sectionIdx))
			for sequence := 1; sequence <= cfg.SeedSpotsPerSection; sequence++ {
				spot := &domain.Spot{
					Level:                  level,
					Section:                section,
					Sequence:               sequence,
					SpotClass:              classForSlot(level, section, sequence, cfg.SeedSpotsPerSection),
					Status:                 domain.SpotAvailable,
					Active:                 true,
					Features:               featuresForSlot(level, section, sequence, cfg.SeedSpotsPerSection),
					LastStatusUpdateSource: "seed",
				}
				if _, err := spotRepo.Create(ctx, spot); err != nil {
					return fmt.Errorf("lỗi tạo chỗ đỗ %d-%s-%d: %w", level, section, sequence, err)
				}
				created++
			}
		}
	}
	log.Printf("Seed: Đã tạo %d chỗ đỗ (%d tầng x %d khu x %d chỗ)",
		created, cfg.SeedLevels, cfg.SeedSectionsPerLevel, cfg.SeedSpotsPerSection)
	return nil
}

// classForSlot trải đều các loại chỗ đỗ trên lưới theo quy tắc cố định:
// khu A tầng 1 có chỗ handicap gần lối vào, cuối mỗi khu là chỗ electric,
// xen kẽ compact, motorcycle và oversized, còn lại là standard.
func classForSlot(level int, section string, sequence, perSection int) domain.SpotClass {
	if level == 1 && section == "A" && sequence <= 2 {
		return domain.ClassHandicap
	}
	if sequence > perSection-2 {
		return domain.ClassElectric
	}
	switch sequence % 5 {
	case 0:
		return domain.ClassOversized
	case 3:
		return domain.ClassCompact
	case 4:
		return domain.ClassMotorcycle
	default:
		return domain.ClassStandard
	}
}

func featuresForSlot(level int, section string, sequence, perSection int) []string {
	var features []string
	if sequence > perSection-2 {
		features = append(features, domain.FeatureCharging)
	}
	// Tầng 1 không có mái che, các tầng trên đều có.
	if level > 1 {
		features = append(features, domain.FeatureCovered)
	}
	return features
}

func seedAdmin(ctx context.Context, userRepo repository.UserRepository) error {
	if _, err := userRepo.FindByUsername(ctx, "admin"); err == nil {
		return nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("lỗi kiểm tra tài khoản admin: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("lỗi băm mật khẩu admin: %w", err)
	}
	if _, err := userRepo.Create(ctx, &domain.User{
		Username: "admin",
		Password: string(hashed),
		Role:     "admin",
	}); err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			return nil
		}
		return fmt.Errorf("lỗi tạo tài khoản admin: %w", err)
	}
	log.Println("Seed: Đã tạo tài khoản admin mặc định (admin/admin123). Hãy đổi mật khẩu ngay.")
	return nil
}
