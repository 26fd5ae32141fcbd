package whatsapp

import (
	"context"
	"strings"

	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"

	"conquerx-notifier/internal/domain"
)

// PhoneLookup находит номер телефона по скрытому идентификатору (LID).
type PhoneLookup interface {
	GetPNForLID(ctx context.Context, lid types.JID) (types.JID, error)
}

// inboundFromEvent извлекает текст из входящего сообщения. Сообщения без
// текста (медиа, реакции) пропускаются. Чаты с LID-адресом приводятся к JID
// номера, чтобы отправителя можно было сравнить с оператором.
func inboundFromEvent(ctx context.Context, evt *events.Message, lids PhoneLookup) (domain.InboundMessage, bool) {
	if evt == nil || evt.Message == nil {
		return domain.InboundMessage{}, false
	}
	text := evt.Message.GetConversation()
	if text == "" {
		text = evt.Message.GetExtendedTextMessage().GetText()
	}
	if strings.TrimSpace(text) == "" {
		return domain.InboundMessage{}, false
	}
	return domain.InboundMessage{
		From:   senderAddress(ctx, evt.Info.MessageSource, lids).String(),
		Text:   text,
		FromMe: evt.Info.IsFromMe,
	}, true
}

func senderAddress(ctx context.Context, src types.MessageSource, lids PhoneLookup) types.JID {
	chat := src.Chat.ToNonAD()
	if chat.Server != types.HiddenUserServer {
		return chat
	}
	for _, alt := range []types.JID{src.SenderAlt, src.Sender} {
		if !alt.IsEmpty() && alt.Server == types.DefaultUserServer {
			return alt.ToNonAD()
		}
	}
	if lids != nil {
		if pn, err := lids.GetPNForLID(ctx, chat); err == nil && !pn.IsEmpty() {
			return pn.ToNonAD()
		}
	}
	return chat
}

// PhoneToJID строит JID пользователя из номера в формате +5491123456789.
func PhoneToJID(phone string) types.JID {
	return types.NewJID(strings.TrimPrefix(phone, "+"), types.DefaultUserServer)
}

// ParseRecipient разбирает JID получателя; голый номер дополняется сервером по умолчанию.
func ParseRecipient(recipientID string) (types.JID, error) {
	if !strings.Contains(recipientID, "@") {
		return PhoneToJID(recipientID), nil
	}
	return types.ParseJID(recipientID)
}
