package postgres

import (
	"context"
	"database/sql"

	"github.com/groblegark/mindful/internal/model"
)

// verificationColumns is the column list used for SELECT statements on the
// user_verifications table.
const verificationColumns = `user_id, verified_date, pending_affirmation`

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func queryAddGatedChannel(ctx context.Context, db executor, guildID, channelID int64) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO mindful_channels (guild_id, channel_id)
		VALUES ($1, $2)
		ON CONFLICT (guild_id, channel_id) DO NOTHING`,
		guildID, channelID,
	)
	return err
}

func queryRemoveGatedChannel(ctx context.Context, db executor, guildID, channelID int64) (bool, error) {
	res, err := db.ExecContext(ctx, `
		DELETE FROM mindful_channels
		WHERE guild_id = $1 AND channel_id = $2`,
		guildID, channelID,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func queryListGatedChannels(ctx context.Context, db executor, guildID int64) ([]int64, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT channel_id FROM mindful_channels
		WHERE guild_id = $1
		ORDER BY channel_id`,
		guildID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func queryListAllGatedChannels(ctx context.Context, db executor) ([]*model.GatedChannel, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT guild_id, channel_id FROM mindful_channels
		ORDER BY guild_id, channel_id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var channels []*model.GatedChannel
	for rows.Next() {
		var gc model.GatedChannel
		if err := rows.Scan(&gc.GuildID, &gc.ChannelID); err != nil {
			return nil, err
		}
		channels = append(channels, &gc)
	}
	return channels, rows.Err()
}

func queryReplaceGatedChannels(ctx context.Context, db executor, guildID int64, channelIDs []int64) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM mindful_channels WHERE guild_id = $1`, guildID); err != nil {
		return err
	}
	for _, id := range channelIDs {
		if err := queryAddGatedChannel(ctx, db, guildID, id); err != nil {
			return err
		}
	}
	return nil
}

func queryGetVerification(ctx context.Context, db executor, userID int64) (*model.UserVerification, error) {
	row := db.QueryRowContext(ctx, `
		SELECT `+verificationColumns+` FROM user_verifications
		WHERE user_id = $1`,
		userID,
	)
	v, err := scanVerification(row)
	if err == sql.ErrNoRows {
		// No record is the common case, not an error; the resolver maps
		// a nil record to state none.
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

func querySetPending(ctx context.Context, db executor, userID int64, day model.Date, affirmation string) error {
	// Unconditional upsert: an earlier stale pending is superseded.
	_, err := db.ExecContext(ctx, `
		INSERT INTO user_verifications (user_id, verified_date, pending_affirmation)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET
			verified_date = EXCLUDED.verified_date,
			pending_affirmation = EXCLUDED.pending_affirmation`,
		userID, day.Time(), affirmation,
	)
	return err
}

func queryCompleteVerification(ctx context.Context, db executor, userID int64, day model.Date) error {
	_, err := db.ExecContext(ctx, `
		UPDATE user_verifications
		SET verified_date = $1, pending_affirmation = NULL
		WHERE user_id = $2`,
		day.Time(), userID,
	)
	return err
}

func queryDeleteVerification(ctx context.Context, db executor, userID int64) error {
	_, err := db.ExecContext(ctx, `DELETE FROM user_verifications WHERE user_id = $1`, userID)
	return err
}

func queryClearStale(ctx context.Context, db executor, today model.Date) (int64, error) {
	res, err := db.ExecContext(ctx, `DELETE FROM user_verifications WHERE verified_date != $1`, today.Time())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func queryListVerifications(ctx context.Context, db executor) ([]*model.UserVerification, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+verificationColumns+` FROM user_verifications
		ORDER BY user_id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.UserVerification
	for rows.Next() {
		v, err := scanVerification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
