package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harrisjose/homepage/internal/telegram"
)

var telegramCmd = &cobra.Command{
	Use:   "telegram",
	Short: "Telegram bot helpers",
}

var (
	replyChatID    int64
	replyMessageID int
)

var telegramReplyCmd = &cobra.Command{
	Use:   "reply [text]",
	Short: "Send a message to a chat, optionally as a reply",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := telegram.NewClient(cfg.Telegram.APIURL, cfg.TelegramToken(), logger)
		reply := telegram.NewReplier(client, replyChatID, replyMessageID)

		resp, err := reply(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			if errors.Is(err, telegram.ErrNoToken) {
				return fmt.Errorf("%w: set %s", err, cfg.Telegram.TokenEnv)
			}
			return err
		}
		fmt.Printf("Sent message %d\n", resp.MessageID())
		return nil
	},
}

func init() {
	telegramReplyCmd.Flags().Int64Var(&replyChatID, "chat-id", 0, "Chat to send to")
	telegramReplyCmd.Flags().IntVar(&replyMessageID, "message-id", 0, "Message to reply to (0 for none)")
	_ = telegramReplyCmd.MarkFlagRequired("chat-id")

	telegramCmd.AddCommand(telegramReplyCmd)
}
