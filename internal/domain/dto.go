package domain

import (
	"time"

	"github.com/google/uuid"
)

// DTOs for API responses; timestamps are ISO 8601 strings

type UserDTO struct {
	ID              uuid.UUID  `json:"id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	Role            UserRole   `json:"role"`
	EmployeeNumber  string     `json:"employeeNumber,omitempty"`
	ClientProjectID *uuid.UUID `json:"clientProjectId,omitempty"`
	IsActive        bool       `json:"isActive"`
}

type ProjectDTO struct {
	ID               uuid.UUID            `json:"id"`
	Name             string               `json:"name"`
	Description      string               `json:"description,omitempty"`
	ClientName       string               `json:"clientName,omitempty"`
	Priority         ProjectPriority      `json:"priority"`
	Status           ProjectStatus        `json:"status"`
	Progress         int                  `json:"progress"`
	StartDate        string               `json:"startDate"`
	EndDate          *string              `json:"endDate,omitempty"`
	Budget           float64              `json:"budget"`
	Spent            float64              `json:"spent"`
	Revenue          float64              `json:"revenue"`
	DocumentationURL string               `json:"documentationUrl,omitempty"`
	SupervisorID     *uuid.UUID           `json:"supervisorId,omitempty"`
	SupervisorName   string               `json:"supervisorName,omitempty"`
	CreatedBy        uuid.UUID            `json:"createdBy"`
	FabricatorIDs    []uuid.UUID          `json:"fabricatorIds"`
	PendingCount     int                  `json:"pendingCount"`
	Budgets          []FabricatorBudgetDTO `json:"fabricatorBudgets,omitempty"`
	CreatedAt        string               `json:"createdAt"`
	UpdatedAt        string               `json:"updatedAt"`
}

// ProjectWithDetailsDTO includes project data with related collections
type ProjectWithDetailsDTO struct {
	ProjectDTO
	PendingAssignments []AssignmentDTO `json:"pendingAssignments"`
	Tasks              []TaskDTO       `json:"tasks,omitempty"`
	Attachments        []AttachmentDTO `json:"attachments,omitempty"`
}

type AssignmentDTO struct {
	ID             uuid.UUID        `json:"id"`
	ProjectID      uuid.UUID        `json:"projectId"`
	ProjectName    string           `json:"projectName,omitempty"`
	FabricatorID   uuid.UUID        `json:"fabricatorId"`
	FabricatorName string           `json:"fabricatorName,omitempty"`
	AssignedBy     uuid.UUID        `json:"assignedBy"`
	AssignedAt     string           `json:"assignedAt"`
	Status         AssignmentStatus `json:"status"`
	Message        string           `json:"message,omitempty"`
	Response       string           `json:"response,omitempty"`
	RespondedAt    *string          `json:"respondedAt,omitempty"`
}

type FabricatorBudgetDTO struct {
	FabricatorID     uuid.UUID `json:"fabricatorId"`
	FabricatorName   string    `json:"fabricatorName,omitempty"`
	AllocatedAmount  float64   `json:"allocatedAmount"`
	SpentAmount      float64   `json:"spentAmount"`
	AllocatedRevenue float64   `json:"allocatedRevenue"`
	Description      string    `json:"description,omitempty"`
}

type WorkLogDTO struct {
	ID              uuid.UUID `json:"id"`
	ProjectID       uuid.UUID `json:"projectId"`
	FabricatorID    uuid.UUID `json:"fabricatorId"`
	FabricatorName  string    `json:"fabricatorName,omitempty"`
	Date            string    `json:"date"`
	HoursWorked     float64   `json:"hoursWorked"`
	Description     string    `json:"description,omitempty"`
	ProgressPercent int       `json:"progressPercentage"`
	Materials       []string  `json:"materials,omitempty"`
	CreatedAt       string    `json:"createdAt"`
}

type TaskDTO struct {
	ID             uuid.UUID       `json:"id"`
	ProjectID      uuid.UUID       `json:"projectId"`
	Title          string          `json:"title"`
	Description    string          `json:"description,omitempty"`
	Status         TaskStatus      `json:"status"`
	Priority       ProjectPriority `json:"priority"`
	AssignedTo     *uuid.UUID      `json:"assignedTo,omitempty"`
	AssigneeName   string          `json:"assigneeName,omitempty"`
	DueDate        *string         `json:"dueDate,omitempty"`
	EstimatedHours float64         `json:"estimatedHours"`
	ActualHours    float64         `json:"actualHours"`
	CreatedBy      uuid.UUID       `json:"createdBy"`
	CreatedAt      string          `json:"createdAt"`
	UpdatedAt      string          `json:"updatedAt"`
}

type MaterialDTO struct {
	ID        uuid.UUID  `json:"id"`
	ProjectID uuid.UUID  `json:"projectId"`
	WorkLogID *uuid.UUID `json:"workLogId,omitempty"`
	Name      string     `json:"name"`
	CreatedAt string     `json:"createdAt"`
}

type NotificationDTO struct {
	ID         uuid.UUID  `json:"id"`
	Type       string     `json:"type"`
	Title      string     `json:"title"`
	Message    string     `json:"message"`
	Read       bool       `json:"read"`
	ReadAt     *string    `json:"readAt,omitempty"`
	EntityID   *uuid.UUID `json:"entityId,omitempty"`
	EntityType string     `json:"entityType,omitempty"`
	CreatedAt  string     `json:"createdAt"`
}

type ActivityDTO struct {
	ID           uuid.UUID          `json:"id"`
	TargetType   ActivityTargetType `json:"targetType"`
	TargetID     uuid.UUID          `json:"targetId"`
	Title        string             `json:"title"`
	Body         string             `json:"body,omitempty"`
	ActivityType ActivityType       `json:"activityType"`
	OccurredAt   string             `json:"occurredAt"`
	ActorName    string             `json:"actorName,omitempty"`
}

type AttachmentDTO struct {
	ID          uuid.UUID `json:"id"`
	ProjectID   uuid.UUID `json:"projectId"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	UploadedBy  uuid.UUID `json:"uploadedBy"`
	CreatedAt   string    `json:"createdAt"`
}

// PaginatedResponse wraps list responses with pagination metadata
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"pageSize"`
	TotalPages int         `json:"totalPages"`
}

// ============================================================================
// Request DTOs
// ============================================================================

// CreateProjectRequest creates a new project.
//
// Two creation policies exist: when ManualAssign is false and FabricatorIDs is
// set, the fabricators become members immediately and the project starts in
// the assigned status with no Assignment records. When ManualAssign is true,
// the project starts in the created status with no members and fabricators
// join only through the invite/accept protocol.
type CreateProjectRequest struct {
	Name             string          `json:"name" validate:"required,max=200"`
	Description      string          `json:"description" validate:"max=10000"`
	ClientName       string          `json:"clientName" validate:"max=200"`
	Priority         ProjectPriority `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	StartDate        time.Time       `json:"startDate" validate:"required"`
	EndDate          *time.Time      `json:"endDate"`
	Budget           float64         `json:"budget" validate:"gte=0"`
	Revenue          float64         `json:"revenue" validate:"gte=0"`
	DocumentationURL string          `json:"documentationUrl" validate:"omitempty,url"`
	SupervisorID     *uuid.UUID      `json:"supervisorId"`
	FabricatorIDs    []uuid.UUID     `json:"fabricatorIds"`
	ManualAssign     bool            `json:"manualAssign"`
}

// AssignFabricatorRequest invites a fabricator to a project
type AssignFabricatorRequest struct {
	FabricatorID uuid.UUID `json:"fabricatorId" validate:"required"`
	Message      string    `json:"message" validate:"max=500"`
}

// RespondAssignmentRequest carries the fabricator's optional response text
type RespondAssignmentRequest struct {
	Response string `json:"response" validate:"max=500"`
}

// RecordWorkRequest records a work-log entry for a project
type RecordWorkRequest struct {
	Date            time.Time `json:"date" validate:"required"`
	HoursWorked     float64   `json:"hoursWorked" validate:"required,gt=0"`
	ProgressPercent int       `json:"progressPercentage" validate:"gte=0,lte=100"`
	Description     string    `json:"description" validate:"max=10000"`
	Materials       []string  `json:"materials" validate:"dive,max=200"`
}

// AllocateRevenueRequest replaces revenue allocations for the listed fabricators
type AllocateRevenueRequest struct {
	Allocations map[uuid.UUID]float64 `json:"allocations" validate:"required,min=1"`
}

// UpdateProjectStatusRequest drives an explicit status transition
type UpdateProjectStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// CreateTaskRequest creates a task manually
type CreateTaskRequest struct {
	Title          string          `json:"title" validate:"required,max=200"`
	Description    string          `json:"description" validate:"max=10000"`
	Priority       ProjectPriority `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	AssignedTo     *uuid.UUID      `json:"assignedTo"`
	DueDate        *time.Time      `json:"dueDate"`
	EstimatedHours float64         `json:"estimatedHours" validate:"gte=0"`
}

// UpdateTaskStatusRequest updates a task's status and optional actual hours
type UpdateTaskStatusRequest struct {
	Status      TaskStatus `json:"status" validate:"required,oneof=pending in_progress completed blocked"`
	ActualHours *float64   `json:"actualHours" validate:"omitempty,gte=0"`
}

// ============================================================================
// Response DTOs
// ============================================================================

// AssignFabricatorResponse returns the updated project and the seeded tasks
type AssignFabricatorResponse struct {
	Project *ProjectDTO `json:"project"`
	Tasks   []TaskDTO   `json:"tasks"`
}

// RecordWorkResponse returns the created work log and the updated project
type RecordWorkResponse struct {
	WorkLog *WorkLogDTO `json:"workLog"`
	Project *ProjectDTO `json:"project"`
}
