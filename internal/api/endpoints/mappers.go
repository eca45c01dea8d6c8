package endpoints

import (
	"support-chat-backend/internal/dto"
	"support-chat-backend/internal/model"
	authsvc "support-chat-backend/internal/service/auth"
	conversationsvc "support-chat-backend/internal/service/conversation"
)

func toPage[In, Out any](page model.Page[In], convert func(In) Out) dto.PageResponse[Out] {
	out := make([]Out, 0, len(page.Page))
	for _, item := range page.Page {
		out = append(out, convert(item))
	}
	return dto.PageResponse[Out]{
		Page:           out,
		ContinueCursor: page.ContinueCursor,
		IsDone:         page.IsDone,
	}
}

func toContactSessionResponse(session model.ContactSessionItem) dto.ContactSessionResponse {
	return dto.ContactSessionResponse{
		ContactSessionID: session.ContactSessionID,
		OrganizationID:   session.OrganizationID,
		Name:             session.Name,
		Email:            session.Email,
		Metadata:         session.Metadata,
		CreatedAt:        session.CreatedAt,
		ExpiresAt:        session.ExpiresAt,
	}
}

func toConversationResponse(conversation model.ConversationItem) dto.ConversationResponse {
	return dto.ConversationResponse{
		ConversationID:   conversation.ConversationID,
		OrganizationID:   conversation.OrganizationID,
		ContactSessionID: conversation.ContactSessionID,
		ThreadID:         conversation.ThreadID,
		Status:           string(conversation.Status),
		CreatedAt:        conversation.CreatedAt,
		UpdatedAt:        conversation.UpdatedAt,
	}
}

func toMessageResponse(message model.MessageItem) dto.MessageResponse {
	return dto.MessageResponse{
		MessageID:       message.MessageID,
		ThreadID:        message.ThreadID,
		Order:           message.Order,
		Role:            string(message.Role),
		AuthorID:        message.AuthorID,
		AuthorName:      message.AuthorName,
		Content:         message.Content,
		ToolInvocations: message.ToolInvocations,
		CreatedAt:       message.CreatedAt,
	}
}

func toMessageResponses(messages []model.MessageItem) []dto.MessageResponse {
	out := make([]dto.MessageResponse, 0, len(messages))
	for _, message := range messages {
		out = append(out, toMessageResponse(message))
	}
	return out
}

func toConversationView(view conversationsvc.View) dto.ConversationView {
	resp := dto.ConversationView{Conversation: toConversationResponse(view.Conversation)}
	if view.ContactSession != nil {
		session := toContactSessionResponse(*view.ContactSession)
		resp.ContactSession = &session
	}
	if view.LastMessage != nil {
		last := toMessageResponse(*view.LastMessage)
		resp.LastMessage = &last
	}
	return resp
}

func toPostMessageResponse(posted conversationsvc.Posted) dto.PostMessageResponse {
	return dto.PostMessageResponse{
		Conversation:   toConversationResponse(posted.Conversation),
		Messages:       toMessageResponses(posted.Messages),
		AgentTriggered: posted.AgentTriggered,
	}
}

func toWidgetSettingsResponse(settings model.WidgetSettingsItem) dto.WidgetSettingsResponse {
	return dto.WidgetSettingsResponse{
		OrganizationID:     settings.OrganizationID,
		GreetMessage:       settings.GreetMessage,
		DefaultSuggestions: settings.DefaultSuggestions,
		VapiSettings:       settings.VapiSettings,
		UpdatedAt:          settings.UpdatedAt,
	}
}

func toPluginResponse(plugin model.PluginItem) dto.PluginResponse {
	return dto.PluginResponse{
		OrganizationID: plugin.OrganizationID,
		Service:        plugin.Service,
		CreatedAt:      plugin.CreatedAt,
		UpdatedAt:      plugin.UpdatedAt,
	}
}

func toKnowledgeEntryResponse(entry model.KnowledgeEntryItem) dto.KnowledgeEntryResponse {
	return dto.KnowledgeEntryResponse{
		EntryID:   entry.EntryID,
		Title:     entry.Title,
		Content:   entry.Content,
		MimeType:  entry.MimeType,
		CreatedAt: entry.CreatedAt,
	}
}

func toOrganizationResponse(org model.OrganizationItem) dto.OrganizationResponse {
	return dto.OrganizationResponse{
		OrganizationID: org.OrganizationID,
		Name:           org.Name,
		MaxMemberships: org.MaxMemberships,
		CreatedAt:      org.CreatedAt,
	}
}

func toOperatorResponse(op model.OperatorItem) dto.OperatorResponse {
	return dto.OperatorResponse{
		OperatorID:     op.OperatorID,
		OrganizationID: op.OrganizationID,
		Email:          op.Email,
		Name:           op.Name,
		Role:           op.Role,
		Status:         op.Status,
		CreatedAt:      op.CreatedAt,
	}
}

func toAuthResponse(result authsvc.AuthResult) dto.AuthResponse {
	resp := dto.AuthResponse{
		AccessToken:  result.Tokens.AccessToken,
		RefreshToken: result.Tokens.RefreshToken,
		Operator:     toOperatorResponse(result.Operator),
		Organization: toOrganizationResponse(result.Organization),
	}
	for _, m := range result.Memberships {
		resp.Memberships = append(resp.Memberships, dto.MembershipResponse{
			OperatorID:     m.Operator.OperatorID,
			OrganizationID: m.Organization.OrganizationID,
			Name:           m.Organization.Name,
			Role:           m.Operator.Role,
			IsDefault:      m.IsDefault,
		})
	}
	return resp
}

func toMeResponse(profile authsvc.ProfileResult) dto.MeResponse {
	return dto.MeResponse{
		Operator:     toOperatorResponse(profile.Operator),
		Organization: toOrganizationResponse(profile.Organization),
	}
}
