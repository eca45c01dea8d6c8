package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"support-chat-backend/internal/dto"
	"support-chat-backend/internal/model"
	chatws "support-chat-backend/internal/websocket"
	"support-chat-backend/internal/widget"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().String("name", "", "visitor name, used when no valid session is stored")
	chatCmd.Flags().String("email", "", "visitor email, used when no valid session is stored")
	chatCmd.Flags().String("language", "", "visitor language sent as session metadata")
	chatCmd.Flags().StringArrayP("message", "m", nil, "message to send, repeatable")
	chatCmd.Flags().Bool("watch", false, "print conversation events from the websocket server")
	_ = chatCmd.MarkFlagRequired("message")
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start a conversation as a visitor and send messages",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		email, _ := cmd.Flags().GetString("email")
		language, _ := cmd.Flags().GetString("language")
		messages, _ := cmd.Flags().GetStringArray("message")
		watch, _ := cmd.Flags().GetBool("watch")

		ctx := cmd.Context()
		client := widget.NewClient(publicURL)
		store := sessionStore()

		state := runBootstrap(cmd)
		if state.Failed() {
			return fmt.Errorf("widget failed to load: %s", state.ErrorMessage)
		}

		if state.Screen == widget.ScreenAuth {
			if strings.TrimSpace(name) == "" || strings.TrimSpace(email) == "" {
				return errors.New("no valid session stored: --name and --email are required")
			}
			req := dto.CreateContactSessionRequest{Name: name, Email: email, OrganizationID: state.OrganizationID}
			if language != "" {
				req.Metadata = &model.SessionMetadata{Language: language}
			}
			session, err := client.CreateContactSession(ctx, req)
			if err != nil {
				return fmt.Errorf("create contact session: %w", err)
			}
			if err := store.Set(state.OrganizationID, session.ContactSessionID); err != nil {
				return err
			}
			state = widget.Reduce(state, widget.SessionStarted{ContactSessionID: session.ContactSessionID})
		}
		state = widget.Reduce(state, widget.Navigate{Screen: widget.ScreenChat})

		created, err := client.CreateConversation(ctx, state.ContactSessionID, state.OrganizationID)
		if err != nil {
			return fmt.Errorf("create conversation: %w", err)
		}
		conversation := created.Conversation
		fmt.Printf("conversation %s (thread %s)\n", conversation.ConversationID, conversation.ThreadID)
		transcript := widget.NewTranscript()
		if created.Greeting != nil {
			printMessage(transcript, *created.Greeting)
		}

		watchCtx, stopWatching := context.WithCancel(ctx)
		defer stopWatching()
		g, watchCtx := errgroup.WithContext(watchCtx)
		if watch {
			// join the room before the first post so its events are not missed
			sub, err := widget.DialConversation(ctx, websocketURL, conversation.ConversationID, state.ContactSessionID)
			if err != nil {
				return fmt.Errorf("watch conversation: %w", err)
			}
			g.Go(func() error {
				return sub.Receive(watchCtx, func(event widget.RealtimeEvent) {
					printEvent(transcript, event)
				})
			})
		}

		for _, prompt := range messages {
			resp, err := client.PostMessage(ctx, conversation.ThreadID, state.ContactSessionID, prompt)
			if err != nil {
				stopWatching()
				return errors.Join(fmt.Errorf("post message: %w", err), g.Wait())
			}
			for _, msg := range resp.Messages {
				printMessage(transcript, msg)
			}
			if resp.Conversation.Status != conversation.Status {
				slog.Info("conversation status changed", "from", conversation.Status, "to", resp.Conversation.Status)
				conversation.Status = resp.Conversation.Status
			}
		}

		if watch {
			// give the last room events a moment to arrive
			select {
			case <-time.After(time.Second):
			case <-watchCtx.Done():
			}
		}
		stopWatching()
		return g.Wait()
	},
}

func printMessage(transcript *widget.Transcript, msg dto.MessageResponse) {
	if !transcript.Add(msg) {
		return
	}
	author := msg.Role
	if msg.AuthorName != "" {
		author = msg.AuthorName
	}
	fmt.Printf("[%s] %s\n", author, msg.Content)
}

func printEvent(transcript *widget.Transcript, event widget.RealtimeEvent) {
	switch event.Type {
	case chatws.EventMessageCreated:
		var payload dto.MessageEvent
		if err := json.Unmarshal(event.Data, &payload); err == nil {
			printMessage(transcript, payload.Message)
			return
		}
	case chatws.EventConversationStatus:
		var payload dto.StatusEvent
		if err := json.Unmarshal(event.Data, &payload); err == nil {
			fmt.Printf("status: %s -> %s\n", payload.PreviousStatus, payload.Status)
			return
		}
	}
	fmt.Fprintf(os.Stdout, "%s %s\n", event.Type, string(event.Data))
}
