package irc

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestStateJoinPart(t *testing.T) {
	c, w := newTestClient(t, Options{})
	welcome(t, c, w)
	s := c.State()

	feed(t, c,
		":me!u@h JOIN #Test",
		":bob!b@h JOIN #TEST",
		":al!a@h JOIN :#test",
	)
	if diff := cmp.Diff([]string{"#Test"}, s.Channels()); diff != "" {
		t.Errorf("channels mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"al", "bob", "me"}, s.Members("#tEST")); diff != "" {
		t.Errorf("members mismatch (-want +got):\n%s", diff)
	}

	feed(t, c, ":BOB!b@h PART #test :bye")
	if s.IsMember("#Test", "bob") {
		t.Error("bob still a member after PART")
	}

	feed(t, c, ":op!o@h KICK #test al :out")
	if s.IsMember("#Test", "al") {
		t.Error("al still a member after KICK")
	}

	feed(t, c, ":me!u@h PART #TEST")
	if _, ok := s.Channel("#test"); ok {
		t.Error("channel survived our own PART")
	}
}

func TestStateSelfKick(t *testing.T) {
	c, w := newTestClient(t, Options{})
	welcome(t, c, w)
	feed(t, c, ":me!u@h JOIN #chan", ":op!o@h KICK #chan me :go away")
	if len(c.State().Channels()) != 0 {
		t.Errorf("channels = %q after self kick", c.State().Channels())
	}
}

func TestStateQuitAcrossChannels(t *testing.T) {
	c, w := newTestClient(t, Options{})
	welcome(t, c, w)
	whois := collectComposites(t, c, "whois_reply")
	s := c.State()

	for _, ch := range []string{"#a", "#b", "#c"} {
		feed(t, c, ":me!u@h JOIN "+ch, ":bob!b@h JOIN "+ch)
	}
	feed(t, c, ":irc.example.net 311 me bob b h * :Bob")
	if diff := cmp.Diff([]string{"#a", "#b", "#c"}, s.ChannelsOf("BOB")); diff != "" {
		t.Errorf("ChannelsOf mismatch (-want +got):\n%s", diff)
	}

	feed(t, c, ":bob!b@h QUIT :Quit: bye")

	for _, ch := range []string{"#a", "#b", "#c"} {
		if s.IsMember(ch, "bob") {
			t.Errorf("bob still in %s", ch)
		}
		if !s.IsMember(ch, "me") {
			t.Errorf("we were removed from %s", ch)
		}
	}
	if n := c.Dispatcher().Listener("whois_reply").Aggregator().Pending(); n != 0 {
		t.Errorf("%d stale WHOIS entries after QUIT", n)
	}
	feed(t, c, ":irc.example.net 318 me bob :End of /WHOIS list.")
	if len(*whois) != 0 {
		t.Errorf("WHOIS for a quit user was emitted: %+v", *whois)
	}
}

func TestStateNickChange(t *testing.T) {
	c, w := newTestClient(t, Options{})
	welcome(t, c, w)
	feed(t, c,
		":me!u@h JOIN #a",
		":me!u@h JOIN #b",
		":bob!b@h JOIN #a",
		":bob!b@h JOIN #b",
		":bob!b@h NICK Robert[away]",
	)
	s := c.State()
	for _, ch := range []string{"#a", "#b"} {
		if s.IsMember(ch, "bob") {
			t.Errorf("old nick still in %s", ch)
		}
		if !s.IsMember(ch, "robert{AWAY}") {
			t.Errorf("new nick missing from %s", ch)
		}
	}
	if diff := cmp.Diff([]string{"Robert[away]", "me"}, s.Members("#a")); diff != "" {
		t.Errorf("members mismatch (-want +got):\n%s", diff)
	}
}

func TestStateNamesReplacesMembers(t *testing.T) {
	c, w := newTestClient(t, Options{})
	welcome(t, c, w)
	feed(t, c,
		":me!u@h JOIN #chan",
		":stale!s@h JOIN #chan",
		":irc.example.net 353 me = #chan :@me +bob al",
		":irc.example.net 366 me #chan :End of /NAMES list.",
	)
	if diff := cmp.Diff([]string{"al", "bob", "me"}, c.State().Members("#chan")); diff != "" {
		t.Errorf("members mismatch (-want +got):\n%s", diff)
	}

	// a NAMES query for a channel we are not in must not create it
	feed(t, c,
		":irc.example.net 353 me = #elsewhere :x y",
		":irc.example.net 366 me #elsewhere :End of /NAMES list.",
	)
	if _, ok := c.State().Channel("#elsewhere"); ok {
		t.Error("NAMES created a channel we are not in")
	}
}

func TestStateChannelErrors(t *testing.T) {
	errs := []string{"471", "473", "474", "475", "405", "403", "476", "437"}
	for _, code := range errs {
		c, w := newTestClient(t, Options{})
		welcome(t, c, w)
		feed(t, c, ":me!u@h JOIN #chan")
		feed(t, c, ":irc.example.net "+code+" me #chan :Cannot join channel")
		if _, ok := c.State().Channel("#chan"); ok {
			t.Errorf("%s did not remove the channel", code)
		}
	}
}

func TestStateTopicAndMode(t *testing.T) {
	c, w := newTestClient(t, Options{})
	welcome(t, c, w)
	feed(t, c,
		":me!u@h JOIN #chan",
		":irc.example.net 332 me #chan :first topic",
		":irc.example.net 324 me #chan +nt",
	)
	info, ok := c.State().Channel("#CHAN")
	if !ok {
		t.Fatal("channel missing")
	}
	if info.Topic != "first topic" || info.Mode != "+nt" {
		t.Errorf("info = %+v", info)
	}

	feed(t, c,
		":op!o@h TOPIC #chan :second topic",
		":op!o@h MODE #chan +l 10",
		":me!u@h MODE me +i",
	)
	info, _ = c.State().Channel("#chan")
	want := ChannelInfo{Name: "#chan", Topic: "second topic", Mode: "+l 10", Members: []string{"me"}}
	if diff := cmp.Diff(want, info); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestStateJoinZero(t *testing.T) {
	c, w := newTestClient(t, Options{})
	welcome(t, c, w)
	feed(t, c, ":me!u@h JOIN #a", ":me!u@h JOIN #b", ":me!u@h JOIN 0")
	if n := len(c.State().Channels()); n != 0 {
		t.Errorf("%d channels left after JOIN 0", n)
	}
}
