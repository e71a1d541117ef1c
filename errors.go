/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"fmt"
	"log"
	"strings"
	"time"
)

// GameError is a recoverable rule violation surfaced to the offending
// connection only. Key is stable wire vocabulary the client localizes;
// Message is an English fallback.
type GameError struct {
	Key     string
	Message string
}

func (e *GameError) Error() string {
	return e.Message
}

var (
	errRoomNotFound     = &GameError{Key: "roomDoesNotExist", Message: "That room does not exist."}
	errRoomCodeExists   = &GameError{Key: "roomCodeExists", Message: "That room code is already in use."}
	errInvalidRoomCode  = &GameError{Key: "invalidRoomCode", Message: "Room codes are 6 letters or digits."}
	errNameTaken        = &GameError{Key: "nameTaken", Message: "That name is already taken in this room."}
	errPlayerNotFound   = &GameError{Key: "playerNotFound", Message: "No such player in this room."}
	errNotCreator       = &GameError{Key: "notCreator", Message: "Only the room creator can do that."}
	errNotEnoughPlayers = &GameError{Key: "notEnoughPlayers", Message: "Not enough players to start a round."}
	errNoActiveRound    = &GameError{Key: "noActiveRound", Message: "No round is in progress."}
	errNoLocationsLeft  = &GameError{Key: "noLocationsLeft", Message: "No unused locations left; start a new game."}
	errRateLimited      = &GameError{Key: "rateLimited", Message: "Too many actions; slow down."}
)

// gameError unwraps err into its wire key and message, falling back to a
// generic key for anything unexpected.
func gameError(err error) (string, string) {
	if ge, ok := err.(*GameError); ok {
		return ge.Key, ge.Message
	}
	return "serverError", "Something went wrong. Please try again."
}

func logf(cfg *Config, format string, args ...any) {
	if !cfg.verbose {
		return
	}

	log.Printf("%s | "+format, append([]any{time.Now().Format(logDate)}, args...)...)
}

func newPage(title, body string) string {
	var htmlBody strings.Builder

	htmlBody.WriteString(`<!DOCTYPE html><html lang="en"><head>`)
	htmlBody.WriteString(getFavicon())
	htmlBody.WriteString(`<style>`)
	htmlBody.WriteString(`html,body,a{display:block;height:100%;width:100%;text-decoration:none;color:inherit;cursor:auto;}</style>`)
	htmlBody.WriteString(fmt.Sprintf("<title>%s</title></head>", title))
	htmlBody.WriteString(fmt.Sprintf("<body><a href=\"/\">%s</a></body></html>", body))

	return htmlBody.String()
}
