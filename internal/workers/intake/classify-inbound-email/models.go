package classifyinboundemail

import "bidbuddy-workers/internal/models"

// Classifications drive the gateway after this task in the intake
// workflow. Every inbound message lands in exactly one bucket.
const (
	ClassificationBuildingConnected = "buildingconnected"
	ClassificationBidProposal       = "bid_proposal"
	ClassificationQuestion          = "question"
	ClassificationSkip              = "skip"
)

// Input is the webhook message payload, flattened into process variables
// by the intake workflow.
type Input struct {
	models.InboundEmail
}

type Output struct {
	Success             bool                     `json:"success"`
	Classification      string                   `json:"classification"`
	Reason              string                   `json:"reason"`
	AttachmentCount     int                      `json:"attachmentCount"`
	ProposalAttachments []models.EmailAttachment `json:"proposalAttachments,omitempty"`
}
