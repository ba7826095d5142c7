package service

import (
	"context"
	"strings"
	"time"

	"github.com/RoyceAzure/lab/bikemarket/internal/domain/model"
	"github.com/RoyceAzure/lab/bikemarket/internal/infra/repository/db"
)

type NewMessage struct {
	Message  string                `json:"message" validate:"required,max=5000"`
	Subject  string                `json:"subject" validate:"max=200"`
	Category string                `json:"category" validate:"max=50"`
	Priority model.MessagePriority `json:"priority"`
}

// TicketUpdate 欄位為 nil 代表不修改
type TicketUpdate struct {
	Status       *model.MessageStatus   `json:"status"`
	Priority     *model.MessagePriority `json:"priority"`
	AssignedToID *uint                  `json:"assigned_to_id"`
}

// Conversation 單一使用者的完整對話
type Conversation struct {
	User     *model.User            `json:"user"`
	Messages []model.SupportMessage `json:"messages"`
}

type ISupportService interface {
	PostUserMessage(ctx context.Context, userID uint, in NewMessage) (*model.SupportMessage, error)
	StaffReply(ctx context.Context, actor Actor, ticketID uint, message string) (*model.SupportMessage, error)
	DirectReply(ctx context.Context, actor Actor, userID uint, parentID *uint, message string) (*model.SupportMessage, error)
	History(ctx context.Context, userID uint) ([]model.SupportMessage, error)
	Conversation(ctx context.Context, actor Actor, userID uint) (*Conversation, error)
	Replies(ctx context.Context, actor Actor, ticketID uint) ([]model.SupportMessage, error)
	Unread(ctx context.Context, actor Actor) ([]model.SupportMessage, error)
	UsersWithMessages(ctx context.Context, actor Actor) ([]model.User, error)
	ListTickets(ctx context.Context, actor Actor, status model.MessageStatus) ([]model.SupportMessage, error)
	UpdateTicket(ctx context.Context, actor Actor, ticketID uint, upd TicketUpdate) (*model.SupportMessage, error)
}

type SupportService struct {
	messageRepo db.IMessageRepository
	userRepo    db.IUserRepository
	now         func() time.Time
}

func NewSupportService(messageRepo db.IMessageRepository, userRepo db.IUserRepository) *SupportService {
	return &SupportService{
		messageRepo: messageRepo,
		userRepo:    userRepo,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// PostUserMessage 使用者開一張新的 ticket
func (s *SupportService) PostUserMessage(ctx context.Context, userID uint, in NewMessage) (*model.SupportMessage, error) {
	in.Message = strings.TrimSpace(in.Message)
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if in.Priority == "" {
		in.Priority = model.MessagePriorityMedium
	}
	if !in.Priority.IsValid() {
		return nil, validationErr("unknown priority %q", in.Priority)
	}
	msg := &model.SupportMessage{
		UserID:    userID,
		Message:   in.Message,
		Subject:   in.Subject,
		Category:  in.Category,
		Status:    model.MessageStatusOpen,
		Priority:  in.Priority,
		Timestamp: s.now(),
	}
	if err := s.messageRepo.CreateMessage(ctx, msg); err != nil {
		return nil, repoErr(err, "create message")
	}
	return msg, nil
}

func cleanReply(message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", validationErr("message is required")
	}
	if len(message) > 5000 {
		return "", validationErr("message is too long")
	}
	return message, nil
}

// StaffReply 回覆歸屬 ticket 的使用者, ticket 轉為處理中
func (s *SupportService) StaffReply(ctx context.Context, actor Actor, ticketID uint, message string) (*model.SupportMessage, error) {
	if err := requireStaff(actor, "reply to ticket"); err != nil {
		return nil, err
	}
	message, err := cleanReply(message)
	if err != nil {
		return nil, err
	}
	ticket, err := s.messageRepo.GetMessageByID(ctx, ticketID)
	if err != nil {
		return nil, repoErr(err, "ticket %d", ticketID)
	}

	reply := &model.SupportMessage{
		UserID:    ticket.UserID,
		Message:   message,
		IsAdmin:   true,
		ParentID:  &ticket.ID,
		Status:    model.MessageStatusInProgress,
		Priority:  ticket.Priority,
		Timestamp: s.now(),
	}
	if err := s.messageRepo.CreateReply(ctx, reply, model.MessageStatusInProgress, nil); err != nil {
		return nil, repoErr(err, "reply to ticket %d", ticketID)
	}
	return reply, nil
}

// DirectReply 後台直接回覆
// 有 parent 時回覆給 parent 的使用者並把 parent 標為已解決, 沒有 parent 時回覆給 userID
// 回覆本身維持 open, parent 不存在時回 ErrNotFound
func (s *SupportService) DirectReply(ctx context.Context, actor Actor, userID uint, parentID *uint, message string) (*model.SupportMessage, error) {
	if err := requireStaff(actor, "reply to user"); err != nil {
		return nil, err
	}
	message, err := cleanReply(message)
	if err != nil {
		return nil, err
	}

	now := s.now()
	reply := &model.SupportMessage{
		UserID:    userID,
		Message:   message,
		IsAdmin:   true,
		Status:    model.MessageStatusOpen,
		Priority:  model.MessagePriorityMedium,
		Timestamp: now,
	}

	if parentID == nil {
		if _, err := s.userRepo.GetUserByID(ctx, userID); err != nil {
			return nil, repoErr(err, "user %d", userID)
		}
		if err := s.messageRepo.CreateMessage(ctx, reply); err != nil {
			return nil, repoErr(err, "create reply")
		}
		return reply, nil
	}

	parent, err := s.messageRepo.GetMessageByID(ctx, *parentID)
	if err != nil {
		return nil, repoErr(err, "message %d", *parentID)
	}
	reply.UserID = parent.UserID
	reply.ParentID = &parent.ID
	reply.Priority = parent.Priority
	if err := s.messageRepo.CreateReply(ctx, reply, model.MessageStatusResolved, &now); err != nil {
		return nil, repoErr(err, "reply to message %d", parent.ID)
	}
	return reply, nil
}

// History 使用者自己的對話, 舊到新
func (s *SupportService) History(ctx context.Context, userID uint) ([]model.SupportMessage, error) {
	msgs, err := s.messageRepo.ListMessagesByUserID(ctx, userID)
	if err != nil {
		return nil, repoErr(err, "messages of user %d", userID)
	}
	return msgs, nil
}

func (s *SupportService) Conversation(ctx context.Context, actor Actor, userID uint) (*Conversation, error) {
	if err := requireStaff(actor, "view conversation"); err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, repoErr(err, "user %d", userID)
	}
	msgs, err := s.History(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Conversation{User: user, Messages: msgs}, nil
}

func (s *SupportService) Replies(ctx context.Context, actor Actor, ticketID uint) ([]model.SupportMessage, error) {
	ticket, err := s.messageRepo.GetMessageByID(ctx, ticketID)
	if err != nil {
		return nil, repoErr(err, "ticket %d", ticketID)
	}
	if !actor.IsStaff && ticket.UserID != actor.UserID {
		return nil, notFoundErr("ticket %d", ticketID)
	}
	msgs, err := s.messageRepo.ListReplies(ctx, ticketID)
	if err != nil {
		return nil, repoErr(err, "replies of ticket %d", ticketID)
	}
	return msgs, nil
}

func (s *SupportService) Unread(ctx context.Context, actor Actor) ([]model.SupportMessage, error) {
	if err := requireStaff(actor, "list unread messages"); err != nil {
		return nil, err
	}
	msgs, err := s.messageRepo.ListUnread(ctx)
	if err != nil {
		return nil, repoErr(err, "list unread messages")
	}
	return msgs, nil
}

func (s *SupportService) UsersWithMessages(ctx context.Context, actor Actor) ([]model.User, error) {
	if err := requireStaff(actor, "list users with messages"); err != nil {
		return nil, err
	}
	ids, err := s.messageRepo.ListMessageUserIDs(ctx)
	if err != nil {
		return nil, repoErr(err, "list message users")
	}
	users, err := s.userRepo.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, repoErr(err, "load users")
	}
	return users, nil
}

func (s *SupportService) ListTickets(ctx context.Context, actor Actor, status model.MessageStatus) ([]model.SupportMessage, error) {
	if err := requireStaff(actor, "list tickets"); err != nil {
		return nil, err
	}
	if status != "" && !status.IsValid() {
		return nil, validationErr("unknown ticket status %q", status)
	}
	msgs, err := s.messageRepo.ListTickets(ctx, status)
	if err != nil {
		return nil, repoErr(err, "list tickets")
	}
	return msgs, nil
}

// UpdateTicket 狀態轉為 resolved 時記錄時間, 離開 resolved 時清除
func (s *SupportService) UpdateTicket(ctx context.Context, actor Actor, ticketID uint, upd TicketUpdate) (*model.SupportMessage, error) {
	if err := requireStaff(actor, "update ticket"); err != nil {
		return nil, err
	}
	updates := map[string]any{}
	if upd.Status != nil {
		if !upd.Status.IsValid() {
			return nil, validationErr("unknown ticket status %q", *upd.Status)
		}
		updates["status"] = *upd.Status
		if *upd.Status == model.MessageStatusResolved {
			updates["resolved_at"] = s.now()
		} else {
			updates["resolved_at"] = nil
		}
	}
	if upd.Priority != nil {
		if !upd.Priority.IsValid() {
			return nil, validationErr("unknown ticket priority %q", *upd.Priority)
		}
		updates["priority"] = *upd.Priority
	}
	if upd.AssignedToID != nil {
		assignee, err := s.userRepo.GetUserByID(ctx, *upd.AssignedToID)
		if err != nil {
			return nil, repoErr(err, "assignee %d", *upd.AssignedToID)
		}
		if !assignee.IsStaff {
			return nil, validationErr("assignee %d is not staff", assignee.ID)
		}
		updates["assigned_to_id"] = assignee.ID
	}
	if len(updates) == 0 {
		return nil, validationErr("nothing to update")
	}
	if err := s.messageRepo.UpdateMessage(ctx, ticketID, updates); err != nil {
		return nil, repoErr(err, "update ticket %d", ticketID)
	}
	ticket, err := s.messageRepo.GetMessageByID(ctx, ticketID)
	if err != nil {
		return nil, repoErr(err, "ticket %d", ticketID)
	}
	return ticket, nil
}

var _ ISupportService = (*SupportService)(nil)
