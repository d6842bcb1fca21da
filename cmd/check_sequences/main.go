package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"matetrip-backend/internal/service"
)

// 파티션(보관함 또는 일차)별 sequence가 0..n-1로 연속인지 점검하는 정비 도구.
// -fix 플래그를 주면 깨진 워크스페이스를 다시 매긴다.
func main() {
	fix := flag.Bool("fix", false, "resequence broken partitions")
	flag.Parse()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Database connection
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_SSLMODE"),
		os.Getenv("DB_TIMEZONE"),
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	fmt.Println("✅ Connected to database")
	fmt.Println()

	// 파티션별 밀도 점검: 멤버 수 n인 파티션은 max(sequence)=n-1,
	// distinct(sequence)=n이어야 한다.
	type PartitionStat struct {
		WorkspaceID int64
		PlanDayID   *int64
		Count       int64
		MaxSeq      int64
		DistinctSeq int64
	}
	var stats []PartitionStat
	query := `
		SELECT
			workspace_id,
			plan_day_id,
			COUNT(*) as count,
			MAX(sequence) as max_seq,
			COUNT(DISTINCT sequence) as distinct_seq
		FROM pois
		GROUP BY workspace_id, plan_day_id
		ORDER BY workspace_id, plan_day_id NULLS FIRST
	`
	if err := db.Raw(query).Scan(&stats).Error; err != nil {
		log.Fatal("Failed to scan partitions:", err)
	}

	fmt.Printf("📊 Partitions: %d\n", len(stats))
	fmt.Println()

	broken := make(map[int64]bool)
	for _, s := range stats {
		ok := s.MaxSeq == s.Count-1 && s.DistinctSeq == s.Count
		if ok {
			continue
		}

		partition := "pool"
		if s.PlanDayID != nil {
			partition = fmt.Sprintf("day %d", *s.PlanDayID)
		}
		fmt.Printf("❌ workspace %d, %s: count=%d, max=%d, distinct=%d\n",
			s.WorkspaceID, partition, s.Count, s.MaxSeq, s.DistinctSeq)
		broken[s.WorkspaceID] = true
	}

	if len(broken) == 0 {
		fmt.Println("✅ All partitions have contiguous sequences")
		return
	}

	fmt.Printf("\n⚠️  %d workspace(s) with broken sequences\n", len(broken))

	if !*fix {
		fmt.Println("Run with -fix to resequence")
		return
	}

	planService := service.NewPlanService(db)
	for workspaceID := range broken {
		if err := planService.ResequenceWorkspace(workspaceID); err != nil {
			log.Printf("Failed to resequence workspace %d: %v", workspaceID, err)
			continue
		}
		fmt.Printf("🔧 Resequenced workspace %d\n", workspaceID)
	}
}
