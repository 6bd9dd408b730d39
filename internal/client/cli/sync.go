package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/bizkeeper/internal/client/trigger"
)

func (a *App) sync(ctx context.Context) {
	if !a.requireLogin() {
		return
	}

	reqCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	report, err := a.controller.RequestSync(reqCtx)
	fmt.Println(trigger.Describe(trigger.Result{Report: report, Err: err}))
}

func (a *App) status() {
	st := a.controller.Status()

	mode := "offline"
	if st.Online {
		mode = "online"
	}
	fmt.Println("connection:", mode)

	if st.Syncing {
		fmt.Println("sync: in progress")
	} else {
		fmt.Println("sync: idle")
	}

	if st.LastSync.IsZero() {
		fmt.Println("last sync: never")
	} else {
		fmt.Println("last sync:", st.LastSync.Format(time.RFC3339))
	}
}
