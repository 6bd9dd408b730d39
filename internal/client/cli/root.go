package cli

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"
)

func (a *App) getStatus() string {
	s := ""
	if a.userName != "" {
		s = a.userName + " "
	}
	if a.Mode != "" {
		s = s + string(a.Mode)
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

func (a *App) Root(ctx context.Context) {

	log.Println("Welcome to BizKeeper CLI (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Printf("bk %s> ", a.getStatus())
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				fmt.Println("Available commands: list <collection>, show <collection> <id>, addproject, addinvoice, edit <collection> <id> <field> <value>, delete <collection> <id>, attach <collection> <id> <file>, sync, status, logout, exit")
			} else {
				fmt.Println("Available commands: register, login, status, exit")
			}

		case "register":
			a.Register(ctx)
		case "login":
			a.Login(ctx)
		case "logout":
			a.Logout(ctx)
		case "list":
			a.list(ctx, args)
		case "show":
			a.show(ctx, args)
		case "addproject":
			a.addProject(ctx)
		case "addinvoice":
			a.addInvoice(ctx)
		case "edit":
			a.edit(ctx, args)
		case "delete":
			a.delete(ctx, args)
		case "attach":
			a.attach(ctx, args)
		case "sync":
			a.sync(ctx)
		case "status":
			a.status()
		case "exit", "quit":
			fmt.Println("Bye!")
			return
		default:
			fmt.Println("Unknown command:", cmd)
		}
	}

}
