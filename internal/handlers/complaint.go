package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/complaintdesk-backend/internal/repos"
	"github.com/yungbote/complaintdesk-backend/internal/requestdata"
	"github.com/yungbote/complaintdesk-backend/internal/services"
	"github.com/yungbote/complaintdesk-backend/internal/types"
)

var (
	errMailDisabled    = errors.New("mail forwarding is not configured")
	errStorageDisabled = errors.New("attachment storage is not configured")
)

type ComplaintHandler struct {
	complaintService services.ComplaintService
	mailerService    services.MailerService
	bucketService    services.BucketService
}

func NewComplaintHandler(
	complaintService services.ComplaintService,
	mailerService services.MailerService,
	bucketService services.BucketService,
) *ComplaintHandler {
	return &ComplaintHandler{
		complaintService: complaintService,
		mailerService:    mailerService,
		bucketService:    bucketService,
	}
}

func (ch *ComplaintHandler) Create(c *gin.Context) {
	var input services.CreateComplaintInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	view, err := ch.complaintService.CreateComplaint(c.Request.Context(), input)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, view)
}

func (ch *ComplaintHandler) Get(c *gin.Context) {
	complaintID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	view, err := ch.complaintService.GetComplaint(c.Request.Context(), complaintID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, view)
}

func (ch *ComplaintHandler) List(c *gin.Context) {
	filter, err := parseComplaintFilter(c)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	views, err := ch.complaintService.ListComplaints(c.Request.Context(), filter)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"complaints": views})
}

func (ch *ComplaintHandler) UpdateStatus(c *gin.Context) {
	complaintID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	var req struct {
		Status types.ComplaintStatus `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := ch.complaintService.UpdateStatus(c.Request.Context(), complaintID, req.Status); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"status": req.Status})
}

func (ch *ComplaintHandler) Resolve(c *gin.Context) {
	complaintID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	var req struct {
		Note string `json:"note"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := ch.complaintService.ResolveComplaint(c.Request.Context(), complaintID, req.Note); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"status": types.StatusResolved})
}

func (ch *ComplaintHandler) Reopen(c *gin.Context) {
	complaintID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := ch.complaintService.ReopenComplaint(c.Request.Context(), complaintID); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"status": types.StatusPending})
}

func (ch *ComplaintHandler) SetStarred(c *gin.Context) {
	complaintID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	var req struct {
		Starred bool `json:"starred"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := ch.complaintService.SetStarred(c.Request.Context(), complaintID, req.Starred); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"starred": req.Starred})
}

func (ch *ComplaintHandler) UpdateDetails(c *gin.Context) {
	complaintID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	var input services.UpdateDetailsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := ch.complaintService.UpdateDetails(c.Request.Context(), complaintID, input); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"updated": true})
}

func (ch *ComplaintHandler) Delete(c *gin.Context) {
	complaintID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := ch.complaintService.DeleteComplaint(c.Request.Context(), complaintID); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": true})
}

func (ch *ComplaintHandler) Stats(c *gin.Context) {
	stats, err := ch.complaintService.Stats(c.Request.Context())
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, stats)
}

func (ch *ComplaintHandler) Forward(c *gin.Context) {
	complaintID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if ch.mailerService == nil {
		RespondError(c, http.StatusServiceUnavailable, "mail_disabled", errMailDisabled)
		return
	}
	var req struct {
		Recipients []string `json:"recipients"`
		Remark     string   `json:"remark"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := ch.mailerService.ForwardComplaint(c.Request.Context(), complaintID, req.Recipients, req.Remark); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"forwarded": len(req.Recipients)})
}

// UploadAttachment stores a file for a complaint-in-progress and returns
// the public URL to submit with the complaint.
func (ch *ComplaintHandler) UploadAttachment(c *gin.Context) {
	if ch.bucketService == nil {
		RespondError(c, http.StatusServiceUnavailable, "storage_disabled", errStorageDisabled)
		return
	}
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	defer file.Close()

	key, err := ch.bucketService.UploadAttachment(c.Request.Context(), rd.UserID, fileHeader.Filename, file)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"url": ch.bucketService.GetPublicURL(key)})
}

func parseComplaintFilter(c *gin.Context) (repos.ComplaintFilter, error) {
	var filter repos.ComplaintFilter
	if v := c.Query("status"); v != "" {
		status := types.ComplaintStatus(v)
		filter.Status = &status
	}
	if v := c.Query("category"); v != "" {
		category := types.ComplaintCategory(v)
		filter.Category = &category
	}
	if v := c.Query("urgency"); v != "" {
		urgency := types.ComplaintUrgency(v)
		filter.Urgency = &urgency
	}
	if v := c.Query("hub_id"); v != "" {
		hubID, err := uuid.Parse(v)
		if err != nil {
			return filter, err
		}
		filter.HubID = &hubID
	}
	if v := c.Query("starred"); v != "" {
		starred, err := strconv.ParseBool(v)
		if err != nil {
			return filter, err
		}
		filter.Starred = &starred
	}
	return filter, nil
}
