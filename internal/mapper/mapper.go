package mapper

import (
	"time"

	"github.com/fabworks/workshop-api/internal/domain"
	"github.com/google/uuid"
)

const timestampFormat = "2006-01-02T15:04:05Z"
const dateFormat = "2006-01-02"

// ToUserDTO converts User to UserDTO
func ToUserDTO(user *domain.User) domain.UserDTO {
	return domain.UserDTO{
		ID:              user.ID,
		Name:            user.Name,
		Email:           user.Email,
		Role:            user.Role,
		EmployeeNumber:  user.EmployeeNumber,
		ClientProjectID: user.ClientProjectID,
		IsActive:        user.IsActive,
	}
}

// ToProjectDTO converts Project to ProjectDTO. Relations that happen to be
// preloaded (supervisor, fabricators, budgets, pending assignments) are
// included; absent relations yield empty collections.
func ToProjectDTO(project *domain.Project) domain.ProjectDTO {
	fabricatorIDs := make([]uuid.UUID, 0, len(project.Fabricators))
	for _, f := range project.Fabricators {
		fabricatorIDs = append(fabricatorIDs, f.FabricatorID)
	}

	var budgets []domain.FabricatorBudgetDTO
	for i := range project.Budgets {
		budgets = append(budgets, ToFabricatorBudgetDTO(&project.Budgets[i]))
	}

	pendingCount := 0
	for _, a := range project.Assignments {
		if a.Status == domain.AssignmentStatusPending {
			pendingCount++
		}
	}

	dto := domain.ProjectDTO{
		ID:               project.ID,
		Name:             project.Name,
		Description:      project.Description,
		ClientName:       project.ClientName,
		Priority:         project.Priority,
		Status:           project.Status,
		Progress:         project.Progress,
		StartDate:        project.StartDate.Format(dateFormat),
		Budget:           project.Budget,
		Spent:            project.Spent,
		Revenue:          project.Revenue,
		DocumentationURL: project.DocumentationURL,
		SupervisorID:     project.SupervisorID,
		CreatedBy:        project.CreatedBy,
		FabricatorIDs:    fabricatorIDs,
		PendingCount:     pendingCount,
		Budgets:          budgets,
		CreatedAt:        project.CreatedAt.Format(timestampFormat),
		UpdatedAt:        project.UpdatedAt.Format(timestampFormat),
	}

	if project.EndDate != nil {
		endDate := project.EndDate.Format(dateFormat)
		dto.EndDate = &endDate
	}
	if project.Supervisor != nil {
		dto.SupervisorName = project.Supervisor.Name
	}

	return dto
}

// ToProjectWithDetailsDTO converts Project with its related collections
func ToProjectWithDetailsDTO(project *domain.Project, tasks []domain.Task, attachments []domain.Attachment) domain.ProjectWithDetailsDTO {
	dto := domain.ProjectWithDetailsDTO{
		ProjectDTO:         ToProjectDTO(project),
		PendingAssignments: []domain.AssignmentDTO{},
	}

	for i := range project.Assignments {
		if project.Assignments[i].Status == domain.AssignmentStatusPending {
			dto.PendingAssignments = append(dto.PendingAssignments, ToAssignmentDTO(&project.Assignments[i]))
		}
	}
	for i := range tasks {
		dto.Tasks = append(dto.Tasks, ToTaskDTO(&tasks[i]))
	}
	for i := range attachments {
		dto.Attachments = append(dto.Attachments, ToAttachmentDTO(&attachments[i]))
	}

	return dto
}

// ToAssignmentDTO converts Assignment to AssignmentDTO
func ToAssignmentDTO(assignment *domain.Assignment) domain.AssignmentDTO {
	dto := domain.AssignmentDTO{
		ID:           assignment.ID,
		ProjectID:    assignment.ProjectID,
		FabricatorID: assignment.FabricatorID,
		AssignedBy:   assignment.AssignedBy,
		AssignedAt:   assignment.AssignedAt.Format(timestampFormat),
		Status:       assignment.Status,
		Message:      assignment.Message,
		Response:     assignment.Response,
	}

	if assignment.Project != nil {
		dto.ProjectName = assignment.Project.Name
	}
	if assignment.Fabricator != nil {
		dto.FabricatorName = assignment.Fabricator.Name
	}
	if assignment.RespondedAt != nil {
		respondedAt := assignment.RespondedAt.Format(timestampFormat)
		dto.RespondedAt = &respondedAt
	}

	return dto
}

// ToFabricatorBudgetDTO converts FabricatorBudget to FabricatorBudgetDTO
func ToFabricatorBudgetDTO(budget *domain.FabricatorBudget) domain.FabricatorBudgetDTO {
	dto := domain.FabricatorBudgetDTO{
		FabricatorID:     budget.FabricatorID,
		AllocatedAmount:  budget.AllocatedAmount,
		SpentAmount:      budget.SpentAmount,
		AllocatedRevenue: budget.AllocatedRevenue,
		Description:      budget.Description,
	}
	if budget.Fabricator != nil {
		dto.FabricatorName = budget.Fabricator.Name
	}
	return dto
}

// ToWorkLogDTO converts WorkLog to WorkLogDTO
func ToWorkLogDTO(workLog *domain.WorkLog) domain.WorkLogDTO {
	dto := domain.WorkLogDTO{
		ID:              workLog.ID,
		ProjectID:       workLog.ProjectID,
		FabricatorID:    workLog.FabricatorID,
		Date:            workLog.Date.Format(dateFormat),
		HoursWorked:     workLog.HoursWorked,
		Description:     workLog.Description,
		ProgressPercent: workLog.ProgressPercent,
		Materials:       workLog.Materials,
		CreatedAt:       workLog.CreatedAt.Format(timestampFormat),
	}
	if workLog.Fabricator != nil {
		dto.FabricatorName = workLog.Fabricator.Name
	}
	return dto
}

// ToTaskDTO converts Task to TaskDTO
func ToTaskDTO(task *domain.Task) domain.TaskDTO {
	dto := domain.TaskDTO{
		ID:             task.ID,
		ProjectID:      task.ProjectID,
		Title:          task.Title,
		Description:    task.Description,
		Status:         task.Status,
		Priority:       task.Priority,
		AssignedTo:     task.AssignedTo,
		EstimatedHours: task.EstimatedHours,
		ActualHours:    task.ActualHours,
		CreatedBy:      task.CreatedBy,
		CreatedAt:      task.CreatedAt.Format(timestampFormat),
		UpdatedAt:      task.UpdatedAt.Format(timestampFormat),
	}
	if task.Assignee != nil {
		dto.AssigneeName = task.Assignee.Name
	}
	if task.DueDate != nil {
		dueDate := task.DueDate.Format(dateFormat)
		dto.DueDate = &dueDate
	}
	return dto
}

// ToMaterialDTO converts Material to MaterialDTO
func ToMaterialDTO(material *domain.Material) domain.MaterialDTO {
	return domain.MaterialDTO{
		ID:        material.ID,
		ProjectID: material.ProjectID,
		WorkLogID: material.WorkLogID,
		Name:      material.Name,
		CreatedAt: material.CreatedAt.Format(timestampFormat),
	}
}

// ToNotificationDTO converts Notification to NotificationDTO
func ToNotificationDTO(notification *domain.Notification) domain.NotificationDTO {
	dto := domain.NotificationDTO{
		ID:         notification.ID,
		Type:       notification.Type,
		Title:      notification.Title,
		Message:    notification.Message,
		Read:       notification.Read,
		EntityID:   notification.EntityID,
		EntityType: notification.EntityType,
		CreatedAt:  notification.CreatedAt.Format(timestampFormat),
	}
	if notification.ReadAt != nil {
		readAt := notification.ReadAt.Format(timestampFormat)
		dto.ReadAt = &readAt
	}
	return dto
}

// ToActivityDTO converts Activity to ActivityDTO
func ToActivityDTO(activity *domain.Activity) domain.ActivityDTO {
	return domain.ActivityDTO{
		ID:           activity.ID,
		TargetType:   activity.TargetType,
		TargetID:     activity.TargetID,
		Title:        activity.Title,
		Body:         activity.Body,
		ActivityType: activity.ActivityType,
		OccurredAt:   activity.OccurredAt.Format(timestampFormat),
		ActorName:    activity.ActorName,
	}
}

// ToAttachmentDTO converts Attachment to AttachmentDTO
func ToAttachmentDTO(attachment *domain.Attachment) domain.AttachmentDTO {
	return domain.AttachmentDTO{
		ID:          attachment.ID,
		ProjectID:   attachment.ProjectID,
		Filename:    attachment.Filename,
		ContentType: attachment.ContentType,
		Size:        attachment.Size,
		UploadedBy:  attachment.UploadedBy,
		CreatedAt:   attachment.CreatedAt.Format(timestampFormat),
	}
}

// FormatDate formats a time as an ISO date string
func FormatDate(t time.Time) string {
	return t.Format(dateFormat)
}
