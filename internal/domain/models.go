package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// BeforeCreate assigns an ID when one is not set
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// UserRole represents the role of a user in the workshop
type UserRole string

const (
	RoleAdmin      UserRole = "admin"
	RoleSupervisor UserRole = "supervisor"
	RoleFabricator UserRole = "fabricator"
	RoleClient     UserRole = "client"
)

// IsValid checks if the UserRole is a valid enum value
func (r UserRole) IsValid() bool {
	switch r {
	case RoleAdmin, RoleSupervisor, RoleFabricator, RoleClient:
		return true
	}
	return false
}

// User represents a user in the system. Authentication is handled by an
// external identity provider; this table is read-mostly reference data.
type User struct {
	BaseModel
	Name            string     `gorm:"type:varchar(200);not null"`
	Email           string     `gorm:"type:varchar(255);not null;uniqueIndex"`
	Role            UserRole   `gorm:"type:varchar(50);not null;index"`
	SecureID        string     `gorm:"type:varchar(100);column:secure_id"`
	EmployeeNumber  string     `gorm:"type:varchar(50);column:employee_number"`
	ClientProjectID *uuid.UUID `gorm:"type:uuid;column:client_project_id"`
	IsActive        bool       `gorm:"not null;default:true;column:is_active"`
}

// ProjectPriority represents the priority level of a project or task
type ProjectPriority string

const (
	PriorityLow    ProjectPriority = "low"
	PriorityMedium ProjectPriority = "medium"
	PriorityHigh   ProjectPriority = "high"
	PriorityUrgent ProjectPriority = "urgent"
)

// IsValid checks if the ProjectPriority is a valid enum value
func (p ProjectPriority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Project represents a fabrication project
type Project struct {
	BaseModel
	Name             string          `gorm:"type:varchar(200);not null;index"`
	Description      string          `gorm:"type:text"`
	ClientName       string          `gorm:"type:varchar(200);column:client_name"`
	Priority         ProjectPriority `gorm:"type:varchar(50);not null;default:'medium'"`
	Status           ProjectStatus   `gorm:"type:varchar(50);not null;index"`
	Progress         int             `gorm:"not null;default:0"`
	StartDate        time.Time       `gorm:"type:date;not null;column:start_date"`
	EndDate          *time.Time      `gorm:"type:date;column:end_date"`
	Budget           float64         `gorm:"type:decimal(15,2);not null;default:0"`
	Spent            float64         `gorm:"type:decimal(15,2);not null;default:0"`
	Revenue          float64         `gorm:"type:decimal(15,2);not null;default:0"`
	DocumentationURL string          `gorm:"type:varchar(500);column:documentation_url"`
	SupervisorID     *uuid.UUID      `gorm:"type:uuid;index;column:supervisor_id"`
	Supervisor       *User           `gorm:"foreignKey:SupervisorID"`
	CreatedBy        uuid.UUID       `gorm:"type:uuid;not null;column:created_by"`
	// Version guards concurrent read-modify-write cycles. Every status,
	// membership, progress, or budget mutation goes through
	// ProjectRepository.UpdateWithVersion.
	Version     int                 `gorm:"not null;default:0"`
	Fabricators []ProjectFabricator `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE"`
	Assignments []Assignment        `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE"`
	Budgets     []FabricatorBudget  `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE"`
	Attachments []Attachment        `gorm:"foreignKey:ProjectID"`
}

// HasFabricator reports whether the fabricator is an accepted member of the project
func (p *Project) HasFabricator(fabricatorID uuid.UUID) bool {
	for _, f := range p.Fabricators {
		if f.FabricatorID == fabricatorID {
			return true
		}
	}
	return false
}

// AllocatedRevenue returns the sum of revenue allocated to fabricators
func (p *Project) AllocatedRevenue() float64 {
	var total float64
	for _, b := range p.Budgets {
		total += b.AllocatedRevenue
	}
	return total
}

// ProjectFabricator links an accepted fabricator to a project.
// One row per (project, fabricator) pair; membership is established either at
// project creation (direct assignment) or by accepting an Assignment.
type ProjectFabricator struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key"`
	ProjectID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_project_fabricator;column:project_id"`
	FabricatorID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_project_fabricator;column:fabricator_id"`
	Fabricator   *User     `gorm:"foreignKey:FabricatorID"`
	AddedAt      time.Time `gorm:"not null;default:CURRENT_TIMESTAMP;column:added_at"`
}

// BeforeCreate assigns an ID when one is not set
func (pf *ProjectFabricator) BeforeCreate(tx *gorm.DB) error {
	if pf.ID == uuid.Nil {
		pf.ID = uuid.New()
	}
	return nil
}

// TableName overrides the default table name
func (ProjectFabricator) TableName() string {
	return "project_fabricators"
}

// AssignmentStatus represents the status of a fabricator assignment
type AssignmentStatus string

const (
	AssignmentStatusPending  AssignmentStatus = "pending"
	AssignmentStatusAccepted AssignmentStatus = "accepted"
	AssignmentStatusDeclined AssignmentStatus = "declined"
)

// IsTerminal reports whether the status is terminal. Terminal statuses are
// write-once: an accepted or declined assignment never changes again.
func (s AssignmentStatus) IsTerminal() bool {
	return s == AssignmentStatusAccepted || s == AssignmentStatusDeclined
}

// Assignment represents an invitation for a fabricator to join a project
type Assignment struct {
	ID           uuid.UUID        `gorm:"type:uuid;primary_key"`
	ProjectID    uuid.UUID        `gorm:"type:uuid;not null;index;column:project_id"`
	Project      *Project         `gorm:"foreignKey:ProjectID"`
	FabricatorID uuid.UUID        `gorm:"type:uuid;not null;index;column:fabricator_id"`
	Fabricator   *User            `gorm:"foreignKey:FabricatorID"`
	AssignedBy   uuid.UUID        `gorm:"type:uuid;not null;column:assigned_by"`
	AssignedAt   time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP;column:assigned_at"`
	Status       AssignmentStatus `gorm:"type:varchar(50);not null;default:'pending';index"`
	Message      string           `gorm:"type:varchar(500)"`
	Response     string           `gorm:"type:varchar(500)"`
	RespondedAt  *time.Time       `gorm:"column:responded_at"`
}

// BeforeCreate assigns an ID when one is not set
func (a *Assignment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// FabricatorBudget holds the cost and revenue allocation for one fabricator on
// one project. At most one row per (project, fabricator) pair; the sum of
// AllocatedRevenue across a project never exceeds Project.Revenue.
type FabricatorBudget struct {
	ID               uuid.UUID `gorm:"type:uuid;primary_key"`
	ProjectID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_fabricator_budget;column:project_id"`
	FabricatorID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_fabricator_budget;column:fabricator_id"`
	Fabricator       *User     `gorm:"foreignKey:FabricatorID"`
	AllocatedAmount  float64   `gorm:"type:decimal(15,2);not null;default:0;column:allocated_amount"`
	SpentAmount      float64   `gorm:"type:decimal(15,2);not null;default:0;column:spent_amount"`
	AllocatedRevenue float64   `gorm:"type:decimal(15,2);not null;default:0;column:allocated_revenue"`
	Description      string    `gorm:"type:varchar(500)"`
	CreatedAt        time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt        time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// BeforeCreate assigns an ID when one is not set
func (b *FabricatorBudget) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// WorkLog represents an immutable work-log entry recorded by a fabricator
type WorkLog struct {
	ID              uuid.UUID                   `gorm:"type:uuid;primary_key"`
	ProjectID       uuid.UUID                   `gorm:"type:uuid;not null;index;column:project_id"`
	Project         *Project                    `gorm:"foreignKey:ProjectID"`
	FabricatorID    uuid.UUID                   `gorm:"type:uuid;not null;index;column:fabricator_id"`
	Fabricator      *User                       `gorm:"foreignKey:FabricatorID"`
	Date            time.Time                   `gorm:"type:date;not null"`
	HoursWorked     float64                     `gorm:"type:decimal(6,2);not null;column:hours_worked"`
	Description     string                      `gorm:"type:text"`
	ProgressPercent int                         `gorm:"not null;default:0;column:progress_percent"`
	Materials       datatypes.JSONSlice[string] `gorm:"column:materials"`
	CreatedAt       time.Time                   `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// BeforeCreate assigns an ID when one is not set
func (w *WorkLog) BeforeCreate(tx *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}

// TaskStatus represents the status of a task
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusBlocked    TaskStatus = "blocked"
)

// IsValid checks if the TaskStatus is a valid enum value
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted, TaskStatusBlocked:
		return true
	}
	return false
}

// Task represents a unit of work on a project
type Task struct {
	BaseModel
	ProjectID      uuid.UUID       `gorm:"type:uuid;not null;index;column:project_id"`
	Project        *Project        `gorm:"foreignKey:ProjectID"`
	Title          string          `gorm:"type:varchar(200);not null"`
	Description    string          `gorm:"type:text"`
	Status         TaskStatus      `gorm:"type:varchar(50);not null;default:'pending';index"`
	Priority       ProjectPriority `gorm:"type:varchar(50);not null;default:'medium'"`
	AssignedTo     *uuid.UUID      `gorm:"type:uuid;index;column:assigned_to"`
	Assignee       *User           `gorm:"foreignKey:AssignedTo"`
	DueDate        *time.Time      `gorm:"type:date;column:due_date"`
	EstimatedHours float64         `gorm:"type:decimal(6,2);not null;default:0;column:estimated_hours"`
	ActualHours    float64         `gorm:"type:decimal(6,2);not null;default:0;column:actual_hours"`
	CreatedBy      uuid.UUID       `gorm:"type:uuid;not null;column:created_by"`
}

// Material represents a material consumed on a project, registered through
// work-log entries
type Material struct {
	ID        uuid.UUID  `gorm:"type:uuid;primary_key"`
	ProjectID uuid.UUID  `gorm:"type:uuid;not null;index;column:project_id"`
	WorkLogID *uuid.UUID `gorm:"type:uuid;index;column:work_log_id"`
	Name      string     `gorm:"type:varchar(200);not null"`
	CreatedAt time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// BeforeCreate assigns an ID when one is not set
func (m *Material) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// Attachment represents an uploaded project document
type Attachment struct {
	BaseModel
	ProjectID   uuid.UUID `gorm:"type:uuid;not null;index;column:project_id"`
	Filename    string    `gorm:"type:varchar(255);not null"`
	ContentType string    `gorm:"type:varchar(100);not null;column:content_type"`
	Size        int64     `gorm:"not null"`
	StoragePath string    `gorm:"type:varchar(500);not null;unique;column:storage_path"`
	UploadedBy  uuid.UUID `gorm:"type:uuid;not null;column:uploaded_by"`
}

// NotificationType represents the type of notification
type NotificationType string

const (
	NotificationTypeAssignmentInvite   NotificationType = "assignment_invite"
	NotificationTypeAssignmentAccepted NotificationType = "assignment_accepted"
	NotificationTypeAssignmentDeclined NotificationType = "assignment_declined"
	NotificationTypeAssignmentReminder NotificationType = "assignment_reminder"
	NotificationTypeStatusChange       NotificationType = "status_change"
	NotificationTypeProjectUpdate      NotificationType = "project_update"
	NotificationTypeTaskAssigned       NotificationType = "task_assigned"
)

// Notification represents a user notification
type Notification struct {
	BaseModel
	UserID     uuid.UUID `gorm:"type:uuid;not null;index;column:user_id"`
	Type       string    `gorm:"type:varchar(50);not null"`
	Title      string    `gorm:"type:varchar(200);not null"`
	Message    string    `gorm:"type:varchar(500);not null"`
	Read       bool      `gorm:"column:read;not null;default:false;index"`
	ReadAt     *time.Time
	EntityID   *uuid.UUID `gorm:"type:uuid;column:entity_id"`
	EntityType string     `gorm:"type:varchar(50);column:entity_type"`
}

// ActivityTargetType represents the type of entity an activity is associated with
type ActivityTargetType string

const (
	ActivityTargetProject    ActivityTargetType = "Project"
	ActivityTargetTask       ActivityTargetType = "Task"
	ActivityTargetAssignment ActivityTargetType = "Assignment"
)

// ActivityType represents the type of activity
type ActivityType string

const (
	ActivityTypeSystem       ActivityType = "system"
	ActivityTypeNote         ActivityType = "note"
	ActivityTypeStatusChange ActivityType = "status_change"
)

// Activity represents a timeline entry for any entity
type Activity struct {
	BaseModel
	TargetType   ActivityTargetType `gorm:"type:varchar(50);not null;index;column:target_type"`
	TargetID     uuid.UUID          `gorm:"type:uuid;not null;index;column:target_id"`
	Title        string             `gorm:"type:varchar(200);not null"`
	Body         string             `gorm:"type:varchar(2000)"`
	ActivityType ActivityType       `gorm:"type:varchar(50);not null;default:'note';column:activity_type"`
	OccurredAt   time.Time          `gorm:"not null;default:CURRENT_TIMESTAMP;index;column:occurred_at"`
	ActorID      *uuid.UUID         `gorm:"type:uuid;column:actor_id"`
	ActorName    string             `gorm:"type:varchar(200);column:actor_name"`
}
