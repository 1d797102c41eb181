package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"strconv"

	_ "github.com/lib/pq"
)

func main() {
	// 从环境变量获取数据库连接信息，如果没有则使用默认值
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		getEnv("DB_HOST", "localhost"),
		getEnvInt("DB_PORT", 5432),
		getEnv("DB_USER", "postgres"),
		getEnv("DB_PASSWORD", "postgres"),
		getEnv("DB_NAME", "respira"),
		getEnv("DB_SSLMODE", "disable"),
	)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	// 最近 20 个会话 + 各自的采样记录数
	query := `
		SELECT
			s.session_id,
			s.patient_id,
			s.device_id,
			s.started_at,
			s.ended_at,
			s.status,
			COUNT(r.record_id) AS record_count
		FROM monitoring_sessions s
		LEFT JOIN session_records r ON r.session_id = s.session_id
		GROUP BY s.session_id
		ORDER BY s.started_at DESC
		LIMIT 20;
	`

	rows, err := db.Query(query)
	if err != nil {
		log.Fatalf("Failed to query: %v", err)
	}
	defer rows.Close()

	fmt.Println("最近会话：")
	for rows.Next() {
		var sessionID, patientID, deviceID, status string
		var startedAt string
		var endedAt sql.NullString
		var recordCount int

		if err := rows.Scan(&sessionID, &patientID, &deviceID, &startedAt, &endedAt, &status, &recordCount); err != nil {
			log.Fatalf("Failed to scan: %v", err)
		}

		ended := "-"
		if endedAt.Valid {
			ended = endedAt.String
		}
		fmt.Printf("  %s  patient=%s device=%s status=%-7s records=%-4d started=%s ended=%s\n",
			sessionID, patientID, deviceID, status, recordCount, startedAt, ended)
	}
	if err := rows.Err(); err != nil {
		log.Fatalf("Rows error: %v", err)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
