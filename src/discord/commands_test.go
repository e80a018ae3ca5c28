package discord

import (
	"fmt"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCommandClient struct {
	created   []string
	existing  []*discordgo.ApplicationCommand
	deleted   []string
	createErr map[string]error
}

func (f *fakeCommandClient) ApplicationCommandCreate(appID string, guildID string, cmd *discordgo.ApplicationCommand, options ...discordgo.RequestOption) (*discordgo.ApplicationCommand, error) {
	if err := f.createErr[cmd.Name]; err != nil {
		return nil, err
	}
	f.created = append(f.created, cmd.Name)
	return cmd, nil
}

func (f *fakeCommandClient) ApplicationCommands(appID string, guildID string, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error) {
	return f.existing, nil
}

func (f *fakeCommandClient) ApplicationCommandDelete(appID string, guildID string, cmdID string, options ...discordgo.RequestOption) error {
	f.deleted = append(f.deleted, cmdID)
	return nil
}

func TestRegisterSlashCommandsRegistersAll(t *testing.T) {
	c := &fakeCommandClient{}
	require.NoError(t, registerSlashCommands(c, "app", "900"))
	assert.Equal(t, defaultCommandOrder, c.created)
}

func TestRegisterSlashCommandsToleratesDuplicates(t *testing.T) {
	c := &fakeCommandClient{createErr: map[string]error{
		CommandPing: &discordgo.RESTError{Message: &discordgo.APIErrorMessage{
			Code:    50035,
			Message: "Invalid Form Body: name already exists",
		}},
	}}
	require.NoError(t, registerSlashCommands(c, "app", "900"))
	assert.NotContains(t, c.created, CommandPing)
	assert.Contains(t, c.created, CommandOpenTicket)
}

func TestRegisterSlashCommandsAggregatesFailures(t *testing.T) {
	c := &fakeCommandClient{createErr: map[string]error{
		CommandRunVote: fmt.Errorf("boom"),
	}}
	err := registerSlashCommands(c, "app", "900")
	require.Error(t, err)
	assert.Contains(t, err.Error(), CommandRunVote)
	assert.Contains(t, c.created, CommandPing, "one failure must not stop the rest")
}

func TestRegisterSlashCommandsSkipsUnknownNames(t *testing.T) {
	c := &fakeCommandClient{}
	require.NoError(t, registerSlashCommands(c, "app", "900", "does_not_exist"))
	assert.Empty(t, c.created)
}

func TestRegisterSlashCommandsRequiresGuild(t *testing.T) {
	assert.Error(t, registerSlashCommands(&fakeCommandClient{}, "app", ""))
}

func TestDeleteSlashCommandsRemovesEverything(t *testing.T) {
	c := &fakeCommandClient{existing: []*discordgo.ApplicationCommand{
		{ID: "1", Name: CommandPing},
		{ID: "2", Name: CommandRunVote},
	}}
	require.NoError(t, deleteSlashCommands(c, "app", "900"))
	assert.Equal(t, []string{"1", "2"}, c.deleted)
}
