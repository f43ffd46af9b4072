package models

import "time"

// Audited actions.
const (
	AuditActionLogin            = "LOGIN"
	AuditActionLogout           = "LOGOUT"
	AuditActionPasswordChange   = "PASSWORD_CHANGE"
	AuditActionUserCreate       = "USER_CREATE"
	AuditActionUserUpdate       = "USER_UPDATE"
	AuditActionUserDeactivate   = "USER_DEACTIVATE"
	AuditActionAdmissionSubmit  = "ADMISSION_SUBMIT"
	AuditActionAdmissionApprove = "ADMISSION_APPROVE"
	AuditActionAdmissionReject  = "ADMISSION_REJECT"
	AuditActionRegisterStatus   = "REGISTER_STATUS_CHANGE"
	AuditActionAccountProvision = "ACCOUNT_PROVISION"
	AuditActionCourseCreate     = "COURSE_CREATE"
	AuditActionCourseUpdate     = "COURSE_UPDATE"
	AuditActionCourseDeactivate = "COURSE_DEACTIVATE"
	AuditActionResultPublish    = "RESULT_PUBLISH"
	AuditActionRegisterExport   = "REGISTER_EXPORT"
	AuditActionProductSave      = "PRODUCT_SAVE"
	AuditActionAlertCreate      = "ALERT_CREATE"
	AuditActionAlertDelete      = "ALERT_DELETE"
)

// Audited resources.
const (
	AuditResourceUser      = "user"
	AuditResourceAdmission = "admission"
	AuditResourceRegister  = "register"
	AuditResourceCourse    = "course"
	AuditResourceResult    = "result"
	AuditResourceProduct   = "product"
	AuditResourceAlert     = "alert"
)

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	UserID     *string   `db:"user_id" json:"user_id,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	OldValues  []byte    `db:"old_values" json:"old_values,omitempty"`
	NewValues  []byte    `db:"new_values" json:"new_values,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
