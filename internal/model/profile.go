// Package model はドメインモデルを定義する。
package model

import "time"

// Role はプロフィールの利用者種別を表す。
type Role string

const (
	// RoleGuard はモスクの警備員。
	RoleGuard Role = "guard"
	// RoleProfessional はビジネスプロフェッショナル。
	RoleProfessional Role = "professional"
	// RoleTouristGuide は観光ガイド。
	RoleTouristGuide Role = "tourist_guide"
	// RoleAdmin は管理者。
	RoleAdmin Role = "admin"
)

// Valid はRoleが定義済みの値かどうかを返す。
func (r Role) Valid() bool {
	switch r {
	case RoleGuard, RoleProfessional, RoleTouristGuide, RoleAdmin:
		return true
	default:
		return false
	}
}

// Profile はIdentityに1対1で紐づくアプリケーション上のユーザーを表す。
// IDはIdentityのIDと同一で、独立した採番は行わない。
// MosqueIDとCompanyIDは同時に設定されない。
type Profile struct {
	ID                  string
	Email               string
	FullName            string
	UserType            Role
	MosqueID            *string
	CompanyID           *string
	IsAdmin             bool
	IsSuperAdmin        bool
	AssessmentCompleted bool
	AssessmentScore     *int // 0-100。未受験の場合はnil
	EnglishLevel        string
	Dialect             string
	Strengths           []string
	Recommendations     []string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// StreakRecord はプロフィールごとの学習継続日数を表す。
// LongestStreak >= CurrentStreak >= 0 を常に満たす。
type StreakRecord struct {
	UserID         string
	CurrentStreak  int
	LongestStreak  int
	LastActivityAt *time.Time
	CreatedAt      time.Time
}

// LearningPath はプロフィールごとの学習パスを表す。
// アセスメント済みで英語レベルが判明している場合のみ作成される。
type LearningPath struct {
	UserID               string
	ProficiencyLevel     string
	RecommendedScenarios []string
	CompletedScenarios   []string
	CurrentScenario      *string
	ProgressPercentage   int
	CreatedAt            time.Time
}

// OrganizationType は組織の種別を表す。
type OrganizationType string

const (
	// OrganizationMosque はモスク。
	OrganizationMosque OrganizationType = "mosque"
	// OrganizationCompany は企業。
	OrganizationCompany OrganizationType = "company"
)

// OrganizationStatus は組織の契約状態を表す。
type OrganizationStatus string

const (
	// OrganizationStatusActive は有効な契約。
	OrganizationStatusActive OrganizationStatus = "active"
	// OrganizationStatusTrial は試用期間中。
	OrganizationStatusTrial OrganizationStatus = "trial"
	// OrganizationStatusSuspended は停止中。
	OrganizationStatusSuspended OrganizationStatus = "suspended"
)

// Organization はプロフィールの所属先（モスクまたは企業）を表す。
type Organization struct {
	ID     string
	Name   string
	Type   OrganizationType
	Status OrganizationStatus
}
